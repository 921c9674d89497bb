package categorize

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

// LoadRules decodes an ordered rule list. JSON input is accepted since it is
// valid YAML.
func LoadRules(r io.Reader) ([]models.CategorizationRule, error) {
	var rules []models.CategorizationRule
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return rules, nil
}

// LoadRulesFile reads rules from path. A missing file yields no rules.
func LoadRulesFile(path string) ([]models.CategorizationRule, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open rules file %q: %w", path, err)
	}
	defer f.Close()
	return LoadRules(f)
}

// SaveRules writes the rule list as YAML, preserving order.
func SaveRules(w io.Writer, rules []models.CategorizationRule) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if rules == nil {
		rules = []models.CategorizationRule{}
	}
	if err := enc.Encode(rules); err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	return enc.Close()
}

// ValidateRules reports the first rule that could never match.
func ValidateRules(rules []models.CategorizationRule) error {
	for i, rule := range rules {
		hasKeyword := rule.Match != "" || rule.Category != ""
		hasMerchant := rule.Merchant != "" || rule.DefaultCategory != ""
		switch {
		case !hasKeyword && !hasMerchant:
			return fmt.Errorf("rule %d: empty", i)
		case rule.Match != "" && rule.Category == "":
			return fmt.Errorf("rule %d: match %q has no category", i, rule.Match)
		case rule.Category != "" && rule.Match == "" && rule.Merchant == "":
			return fmt.Errorf("rule %d: category %q has no match", i, rule.Category)
		case rule.Merchant != "" && rule.DefaultCategory == "" && rule.Match == "":
			return fmt.Errorf("rule %d: merchant %q has no defaultCategory", i, rule.Merchant)
		}
		if rule.Category != "" {
			if _, ok := models.ParseBucket(rule.Category); !ok {
				return fmt.Errorf("rule %d: unknown category %q", i, rule.Category)
			}
		}
		if rule.DefaultCategory != "" {
			if _, ok := models.ParseBucket(rule.DefaultCategory); !ok {
				return fmt.Errorf("rule %d: unknown defaultCategory %q", i, rule.DefaultCategory)
			}
		}
	}
	return nil
}
