package categorize

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

//go:embed vendors.yaml
var vendorsYAML []byte

var defaultVendors = mustParseVendors(vendorsYAML)

type vendorRow struct {
	entry models.VendorEntry
	terms []string // normalized
}

// VendorTable is the static vendor knowledge base, substring-matched
// against normalized merchant text. Order matters: the first entry wins.
type VendorTable struct {
	rows []vendorRow
}

// DefaultVendors returns the built-in vendor table.
func DefaultVendors() *VendorTable {
	return defaultVendors
}

// ParseVendors decodes a YAML vendor list. Entries with an unknown category
// are rejected.
func ParseVendors(data []byte) (*VendorTable, error) {
	var entries []models.VendorEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode vendor table: %w", err)
	}
	return NewVendorTable(entries)
}

// NewVendorTable builds a table from entries in priority order.
func NewVendorTable(entries []models.VendorEntry) (*VendorTable, error) {
	t := &VendorTable{}
	for i, e := range entries {
		if !e.CategoryKey.Valid() {
			return nil, fmt.Errorf("vendor %d (%s): unknown category %q", i, e.Label, e.CategoryKey)
		}
		row := vendorRow{entry: e}
		for _, term := range e.MatchTerms {
			if n := Normalize(term); n != "" {
				row.terms = append(row.terms, n)
			}
		}
		if len(row.terms) == 0 {
			return nil, fmt.Errorf("vendor %d (%s): no match terms", i, e.Label)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func mustParseVendors(data []byte) *VendorTable {
	t, err := ParseVendors(data)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the first entry with a term found in text.
func (t *VendorTable) Lookup(text string) (models.VendorEntry, bool) {
	if t == nil {
		return models.VendorEntry{}, false
	}
	normalized := Normalize(text)
	if normalized == "" {
		return models.VendorEntry{}, false
	}
	for _, row := range t.rows {
		for _, term := range row.terms {
			if strings.Contains(normalized, term) {
				return row.entry, true
			}
		}
	}
	return models.VendorEntry{}, false
}

// Len returns the number of entries.
func (t *VendorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

func (*VendorTable) Name() string { return SourceVendor }

func (t *VendorTable) Match(r Record) (models.BucketKey, bool) {
	e, ok := t.Lookup(r.Merchant + " " + r.ItemText)
	if !ok {
		return "", false
	}
	return e.CategoryKey, true
}
