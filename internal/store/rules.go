package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

// ListRules returns the categorization rules in their saved order.
func (db *DB) ListRules(ctx context.Context) ([]models.CategorizationRule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT keyword, category, merchant, default_category
		FROM rules
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	rules := []models.CategorizationRule{}
	for rows.Next() {
		var r models.CategorizationRule
		if err := rows.Scan(&r.Match, &r.Category, &r.Merchant, &r.DefaultCategory); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// ReplaceRules overwrites the whole rule list.
func (db *DB) ReplaceRules(ctx context.Context, rules []models.CategorizationRule) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rules`); err != nil {
			return fmt.Errorf("clear rules: %w", err)
		}
		for i, r := range rules {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO rules (position, keyword, category, merchant, default_category)
				VALUES (?, ?, ?, ?, ?)
			`, i, r.Match, r.Category, r.Merchant, r.DefaultCategory)
			if err != nil {
				return fmt.Errorf("insert rule %d: %w", i, err)
			}
		}
		return nil
	})
}
