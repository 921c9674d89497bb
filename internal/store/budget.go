package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

// AddBudgetItems inserts items in one transaction. Items without an id get
// a new one; the stored items are returned.
func (db *DB) AddBudgetItems(ctx context.Context, items []models.Bucketed) ([]models.Bucketed, error) {
	var out []models.Bucketed
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = insertBudgetItems(ctx, tx, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertBudgetItems(ctx context.Context, ex execer, items []models.Bucketed) ([]models.Bucketed, error) {
	out := make([]models.Bucketed, 0, len(items))
	for _, b := range items {
		if b.Item.ID == "" {
			b.Item.ID = uuid.NewString()
		}
		if b.Item.Status == "" {
			b.Item.Status = models.StatusPending
		}
		_, err := ex.ExecContext(ctx, `
			INSERT INTO budget_items (id, bucket, category, est_budget, actual_cost, due_date, status, archived)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, b.Item.ID, string(b.CategoryKey), b.Item.Category, b.Item.EstBudget, b.Item.ActualCost,
			b.Item.DueDate, string(b.Item.Status), b.Item.Archived)
		if err != nil {
			return nil, fmt.Errorf("insert budget item %s: %w", b.Item.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Buckets loads every budget item, archived ones included, grouped by bucket
// in insertion order.
func (db *DB) Buckets(ctx context.Context) (models.Buckets, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT bucket, id, category, est_budget, actual_cost, due_date, status, archived
		FROM budget_items
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query budget items: %w", err)
	}
	defer rows.Close()

	buckets := models.Buckets{}
	for rows.Next() {
		var (
			bucket string
			status string
			it     models.BudgetItem
		)
		if err := rows.Scan(&bucket, &it.ID, &it.Category, &it.EstBudget, &it.ActualCost, &it.DueDate, &status, &it.Archived); err != nil {
			return nil, fmt.Errorf("scan budget item: %w", err)
		}
		it.Status = models.ItemStatus(status)
		key := models.BucketKey(bucket)
		buckets[key] = append(buckets[key], it)
	}
	return buckets, rows.Err()
}

// SetArchived archives or restores one budget item.
func (db *DB) SetArchived(ctx context.Context, id string, archived bool) error {
	res, err := db.ExecContext(ctx, `UPDATE budget_items SET archived = ? WHERE id = ?`, archived, id)
	if err != nil {
		return fmt.Errorf("update budget item: %w", err)
	}
	return expectOne(res, "budget item", id)
}

// DeleteBudgetItem removes one budget item.
func (db *DB) DeleteBudgetItem(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM budget_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget item: %w", err)
	}
	return expectOne(res, "budget item", id)
}

func expectOne(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
