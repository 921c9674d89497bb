package categorize

import (
	"strings"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

// Record is the candidate handed to the classifiers.
type Record struct {
	Merchant string
	ItemText string
	Explicit string // caller-supplied category key or label
}

func (r Record) text() string {
	return Normalize(strings.TrimSpace(r.Merchant + " " + r.ItemText))
}

// Classifier is one category source. Classifiers are tried in order and the
// first match wins.
type Classifier interface {
	Name() string
	Match(r Record) (models.BucketKey, bool)
}

// Explicit accepts a caller-supplied category when it names a known bucket.
type Explicit struct{}

func (Explicit) Name() string { return SourceExplicit }

func (Explicit) Match(r Record) (models.BucketKey, bool) {
	return models.ParseBucket(r.Explicit)
}

// MerchantDefault maps an exact normalized merchant to a rule's default category.
type MerchantDefault struct {
	byMerchant map[string]models.BucketKey
}

// NewMerchantDefault indexes the rules that carry both a merchant and a
// default category. Earlier rules take precedence over later duplicates.
func NewMerchantDefault(rules []models.CategorizationRule) *MerchantDefault {
	m := &MerchantDefault{byMerchant: make(map[string]models.BucketKey)}
	for _, rule := range rules {
		merchant := Normalize(rule.Merchant)
		if merchant == "" {
			continue
		}
		key, ok := models.ParseBucket(rule.DefaultCategory)
		if !ok {
			continue
		}
		if _, seen := m.byMerchant[merchant]; !seen {
			m.byMerchant[merchant] = key
		}
	}
	return m
}

func (*MerchantDefault) Name() string { return SourceMerchant }

func (m *MerchantDefault) Match(r Record) (models.BucketKey, bool) {
	key, ok := m.byMerchant[Normalize(r.Merchant)]
	return key, ok
}

type keywordRule struct {
	match string
	key   models.BucketKey
}

// KeywordRules scans keyword rules in list order for a substring hit on
// the normalized merchant and item text.
type KeywordRules struct {
	rules []keywordRule
}

// NewKeywordRules keeps the rules that carry both a keyword and a known category.
func NewKeywordRules(rules []models.CategorizationRule) *KeywordRules {
	k := &KeywordRules{}
	for _, rule := range rules {
		match := Normalize(rule.Match)
		if match == "" {
			continue
		}
		key, ok := models.ParseBucket(rule.Category)
		if !ok {
			continue
		}
		k.rules = append(k.rules, keywordRule{match: match, key: key})
	}
	return k
}

func (*KeywordRules) Name() string { return SourceKeyword }

func (k *KeywordRules) Match(r Record) (models.BucketKey, bool) {
	text := r.text()
	if text == "" {
		return "", false
	}
	for _, rule := range k.rules {
		if strings.Contains(text, rule.match) {
			return rule.key, true
		}
	}
	return "", false
}
