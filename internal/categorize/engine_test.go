package categorize

import (
	"bytes"
	"strings"
	"testing"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Costco", "costco"},
		{"  TRADER JOE'S #552  ", "trader joe s 552"},
		{"Café Déjà-Vu", "cafe deja vu"},
		{"AMZN Mktp US*2K3", "amzn mktp us 2k3"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q): got %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolveOrder(t *testing.T) {
	rules := []models.CategorizationRule{
		{Merchant: "Costco", DefaultCategory: "personal"},
		{Match: "coffee", Category: "food"},
		{Match: "costco", Category: "homeOffice"},
		{Match: "gas", Category: "Transportation"},
	}
	e := NewEngine(rules, nil)

	tests := []struct {
		name       string
		record     Record
		wantKey    models.BucketKey
		wantSource string
	}{
		{"explicit wins", Record{Merchant: "Costco", Explicit: "housing"}, models.BucketHousing, SourceExplicit},
		{"explicit label", Record{Merchant: "Costco", Explicit: "Home Office"}, models.BucketHomeOffice, SourceExplicit},
		{"invalid explicit ignored", Record{Merchant: "Costco", Explicit: "groceries"}, models.BucketPersonal, SourceMerchant},
		{"merchant exact beats keyword", Record{Merchant: "COSTCO"}, models.BucketPersonal, SourceMerchant},
		{"merchant must be exact", Record{Merchant: "Costco Whse"}, models.BucketHomeOffice, SourceKeyword},
		{"keyword on item text", Record{Merchant: "Blue Bottle", ItemText: "Coffee beans"}, models.BucketFood, SourceKeyword},
		{"keyword rule label category", Record{Merchant: "Quick Gas 22"}, models.BucketTransportation, SourceKeyword},
		{"vendor fallback", Record{Merchant: "Netflix.com"}, models.BucketPersonal, SourceVendor},
		{"misc fallback", Record{Merchant: "Zorblax Industries"}, models.BucketMisc, SourceDefault},
		{"empty record", Record{}, models.BucketMisc, SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Resolve(tt.record)
			if got.Key != tt.wantKey {
				t.Errorf("key: got %q, want %q", got.Key, tt.wantKey)
			}
			if got.Source != tt.wantSource {
				t.Errorf("source: got %q, want %q", got.Source, tt.wantSource)
			}
			if got.Label != tt.wantKey.Label() {
				t.Errorf("label: got %q, want %q", got.Label, tt.wantKey.Label())
			}
		})
	}
}

func TestKeywordRulesFirstHitWins(t *testing.T) {
	e := NewEngine([]models.CategorizationRule{
		{Match: "market", Category: "food"},
		{Match: "super market", Category: "personal"},
	}, nil)

	got := e.Category("Super Market 9", "")
	if got != models.BucketFood {
		t.Errorf("got %q, want %q", got, models.BucketFood)
	}
}

func TestRulesWithUnknownCategoryAreSkipped(t *testing.T) {
	e := NewEngine([]models.CategorizationRule{
		{Match: "costco", Category: "groceries"},
		{Merchant: "Costco", DefaultCategory: "nope"},
	}, nil)

	got := e.Resolve(Record{Merchant: "Costco"})
	if got.Key != models.BucketFood || got.Source != SourceVendor {
		t.Errorf("got %+v, want vendor food", got)
	}
}

func TestVendorTable(t *testing.T) {
	tests := []struct {
		text      string
		wantKey   models.BucketKey
		wantLabel string
	}{
		{"UBER EATS 8005928996", models.BucketFood, "Uber Eats"},
		{"UBER TRIP HELP.UBER.COM", models.BucketTransportation, "Uber"},
		{"SHELL OIL 57444", models.BucketTransportation, "Shell"},
		{"Unknown Merchant Monthly Service Fee", models.BucketBanking, "Bank Fee"},
		{"Payroll ACME Corp", models.BucketIncome, "Payroll"},
		{"Trader Joe's", models.BucketFood, "Trader Joe's"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			e, ok := DefaultVendors().Lookup(tt.text)
			if !ok {
				t.Fatalf("Lookup(%q): no match", tt.text)
			}
			if e.CategoryKey != tt.wantKey {
				t.Errorf("key: got %q, want %q", e.CategoryKey, tt.wantKey)
			}
			if e.Label != tt.wantLabel {
				t.Errorf("label: got %q, want %q", e.Label, tt.wantLabel)
			}
		})
	}
}

func TestVendorTableMatchesSubstrings(t *testing.T) {
	tests := []struct {
		text    string
		wantKey models.BucketKey
	}{
		{"SQ *STARBUCKSCOFFEE SEATTLE WA", models.BucketFood},
		{"AMZNMKTPLACE", models.BucketPersonal},
		{"UBEREATS ORDER", models.BucketFood},
		{"WWW.NETFLIXCOM", models.BucketPersonal},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			e, ok := DefaultVendors().Lookup(tt.text)
			if !ok {
				t.Fatalf("Lookup(%q): no match", tt.text)
			}
			if e.CategoryKey != tt.wantKey {
				t.Errorf("got %q, want %q", e.CategoryKey, tt.wantKey)
			}
		})
	}

	got := Default().Resolve(Record{Merchant: "AMZNMKTPLACE"})
	if got.Key != models.BucketPersonal || got.Source != SourceVendor {
		t.Errorf("got %+v, want personal from vendor", got)
	}
}

func TestParseVendorsRejectsUnknownCategory(t *testing.T) {
	_, err := ParseVendors([]byte("- label: X\n  category: groceries\n  terms: [x]\n"))
	if err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestCustomChain(t *testing.T) {
	vendors, err := NewVendorTable([]models.VendorEntry{
		{MatchTerms: []string{"acme"}, CategoryKey: models.BucketHomeOffice, Label: "Acme"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := NewChain(vendors, Explicit{})

	got := e.Resolve(Record{Merchant: "ACME Supply", Explicit: "food"})
	if got.Key != models.BucketHomeOffice {
		t.Errorf("got %q, want vendor to win when ordered first", got.Key)
	}
	if v, ok := e.Vendor("acme"); !ok || v.Label != "Acme" {
		t.Errorf("Vendor lookup: got %+v, %v", v, ok)
	}
}

func TestNilEngineResolvesMisc(t *testing.T) {
	var e *Engine
	got := e.Resolve(Record{Merchant: "Costco"})
	if got.Key != models.BucketMisc {
		t.Errorf("got %q, want misc", got.Key)
	}
}

func TestLoadRules(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"yaml", "- match: coffee\n  category: food\n- merchant: Costco\n  defaultCategory: food\n", 2},
		{"json", `[{"match":"gym","category":"personal"}]`, 1},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := LoadRules(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rules) != tt.want {
				t.Errorf("got %d rules, want %d", len(rules), tt.want)
			}
		})
	}
}

func TestSaveRulesPreservesOrder(t *testing.T) {
	rules := []models.CategorizationRule{
		{Match: "zeta", Category: "food"},
		{Match: "alpha", Category: "personal"},
	}

	var buf bytes.Buffer
	if err := SaveRules(&buf, rules); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := LoadRules(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Match != "zeta" || got[1].Match != "alpha" {
		t.Errorf("got %+v", got)
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name    string
		rule    models.CategorizationRule
		wantErr bool
	}{
		{"keyword", models.CategorizationRule{Match: "gym", Category: "personal"}, false},
		{"merchant", models.CategorizationRule{Merchant: "Costco", DefaultCategory: "food"}, false},
		{"empty", models.CategorizationRule{}, true},
		{"keyword without category", models.CategorizationRule{Match: "gym"}, true},
		{"merchant without default", models.CategorizationRule{Merchant: "Costco"}, true},
		{"unknown category", models.CategorizationRule{Match: "gym", Category: "fitness"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRules([]models.CategorizationRule{tt.rule})
			if (err != nil) != tt.wantErr {
				t.Errorf("got err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
