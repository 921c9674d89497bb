// Package categorize resolves a budget bucket for a merchant and item text.
//
// Resolution runs an ordered chain of classifiers: an explicit category,
// user merchant rules, user keyword rules, then the built-in vendor table.
// Anything unmatched lands in misc, so resolution cannot fail.
package categorize

import (
	"github.com/insightdelivered/budget-ingest/internal/models"
)

// Resolution sources.
const (
	SourceExplicit = "explicit"
	SourceMerchant = "merchant-rule"
	SourceKeyword  = "keyword-rule"
	SourceVendor   = "vendor"
	SourceDefault  = "default"
)

// Resolution is the bucket chosen for a record and which classifier chose it.
type Resolution struct {
	Key    models.BucketKey `json:"categoryKey"`
	Label  string           `json:"categoryLabel"`
	Source string           `json:"source"`
}

// Engine is an immutable classifier chain. It is safe for concurrent use.
type Engine struct {
	chain   []Classifier
	rules   []models.CategorizationRule
	vendors *VendorTable
}

// NewEngine builds the standard chain over the user rules and vendor table.
// A nil vendor table uses the built-in one.
func NewEngine(rules []models.CategorizationRule, vendors *VendorTable) *Engine {
	if vendors == nil {
		vendors = DefaultVendors()
	}
	owned := append([]models.CategorizationRule(nil), rules...)
	return &Engine{
		chain: []Classifier{
			Explicit{},
			NewMerchantDefault(owned),
			NewKeywordRules(owned),
			vendors,
		},
		rules:   owned,
		vendors: vendors,
	}
}

// NewChain builds an engine from an arbitrary classifier order.
func NewChain(classifiers ...Classifier) *Engine {
	e := &Engine{chain: classifiers}
	for _, c := range classifiers {
		if v, ok := c.(*VendorTable); ok && e.vendors == nil {
			e.vendors = v
		}
	}
	return e
}

// Default returns an engine with no user rules and the built-in vendor table.
func Default() *Engine {
	return NewEngine(nil, nil)
}

// Resolve picks the bucket for r. It always returns a known bucket.
func (e *Engine) Resolve(r Record) Resolution {
	if e != nil {
		for _, c := range e.chain {
			if key, ok := c.Match(r); ok && key.Valid() {
				return Resolution{Key: key, Label: key.Label(), Source: c.Name()}
			}
		}
	}
	return Resolution{Key: models.BucketMisc, Label: models.BucketMisc.Label(), Source: SourceDefault}
}

// Category is shorthand for Resolve without an explicit category.
func (e *Engine) Category(merchant, itemText string) models.BucketKey {
	return e.Resolve(Record{Merchant: merchant, ItemText: itemText}).Key
}

// Vendor looks text up in the engine's vendor table.
func (e *Engine) Vendor(text string) (models.VendorEntry, bool) {
	if e == nil || e.vendors == nil {
		return DefaultVendors().Lookup(text)
	}
	return e.vendors.Lookup(text)
}

// Rules returns a copy of the user rules the engine was built from.
func (e *Engine) Rules() []models.CategorizationRule {
	if e == nil {
		return nil
	}
	return append([]models.CategorizationRule(nil), e.rules...)
}
