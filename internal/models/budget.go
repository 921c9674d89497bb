package models

import "strings"

// BucketKey names one of the fixed budget categories.
type BucketKey string

const (
	BucketIncome         BucketKey = "income"
	BucketHousing        BucketKey = "housing"
	BucketTransportation BucketKey = "transportation"
	BucketFood           BucketKey = "food"
	BucketPersonal       BucketKey = "personal"
	BucketHomeOffice     BucketKey = "homeOffice"
	BucketBanking        BucketKey = "banking"
	BucketMisc           BucketKey = "misc"
)

// BucketKeys lists every bucket in display order.
var BucketKeys = []BucketKey{
	BucketIncome,
	BucketHousing,
	BucketTransportation,
	BucketFood,
	BucketPersonal,
	BucketHomeOffice,
	BucketBanking,
	BucketMisc,
}

var bucketLabels = map[BucketKey]string{
	BucketIncome:         "Income",
	BucketHousing:        "Housing",
	BucketTransportation: "Transportation",
	BucketFood:           "Food",
	BucketPersonal:       "Personal",
	BucketHomeOffice:     "Home Office",
	BucketBanking:        "Banking",
	BucketMisc:           "Miscellaneous",
}

// Label returns the display name of the bucket.
func (k BucketKey) Label() string {
	if l, ok := bucketLabels[k]; ok {
		return l
	}
	return string(k)
}

// Valid reports whether k is one of the fixed buckets.
func (k BucketKey) Valid() bool {
	_, ok := bucketLabels[k]
	return ok
}

// ParseBucket resolves a bucket from its key or display label, ignoring case
// and spaces. "Home Office", "homeoffice" and "homeOffice" all resolve.
func ParseBucket(s string) (BucketKey, bool) {
	want := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if want == "" {
		return "", false
	}
	for _, k := range BucketKeys {
		if strings.ToLower(string(k)) == want {
			return k, true
		}
		if strings.ToLower(strings.ReplaceAll(k.Label(), " ", "")) == want {
			return k, true
		}
	}
	return "", false
}

// ItemStatus is the payment state of a budget item.
type ItemStatus string

const (
	StatusPending ItemStatus = "pending"
	StatusPaid    ItemStatus = "paid"
)

// BudgetItem is a planned or actual line in a bucket. Money fields are
// non-negative magnitudes.
type BudgetItem struct {
	ID         string     `json:"id"`
	Category   string     `json:"category"`
	EstBudget  float64    `json:"estBudget"`
	ActualCost float64    `json:"actualCost"`
	DueDate    string     `json:"dueDate"`
	Status     ItemStatus `json:"status"`
	Archived   bool       `json:"archived"`
}

// Buckets holds budget items grouped by bucket.
type Buckets map[BucketKey][]BudgetItem

// Bucketed pairs a budget item with the bucket it belongs in.
type Bucketed struct {
	CategoryKey BucketKey  `json:"categoryKey"`
	Item        BudgetItem `json:"item"`
}

// Totals is the aggregate a health score is computed from.
type Totals struct {
	TotalIncome   float64 `json:"totalIncome"`
	TotalExpenses float64 `json:"totalExpenses"`
	NetIncome     float64 `json:"netIncome"`
}

// CategorizationRule is one user-owned rule. A rule with Match maps a keyword
// to Category; a rule with Merchant maps an exact merchant to DefaultCategory.
type CategorizationRule struct {
	Match           string `json:"match,omitempty" yaml:"match,omitempty"`
	Category        string `json:"category,omitempty" yaml:"category,omitempty"`
	Merchant        string `json:"merchant,omitempty" yaml:"merchant,omitempty"`
	DefaultCategory string `json:"defaultCategory,omitempty" yaml:"defaultCategory,omitempty"`
}

// VendorEntry is one row of the built-in vendor table.
type VendorEntry struct {
	MatchTerms  []string  `json:"matchTerms" yaml:"terms"`
	CategoryKey BucketKey `json:"categoryKey" yaml:"category"`
	Label       string    `json:"label" yaml:"label"`
}
