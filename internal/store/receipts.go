package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

// SaveReceipt stores r, assigning an id when it has none.
func (db *DB) SaveReceipt(ctx context.Context, r models.Receipt) (models.Receipt, error) {
	return insertReceipt(ctx, db.DB, r)
}

// SaveReceiptWithItem stores r and the budget item derived from it in one
// transaction. Neither is stored when either insert fails.
func (db *DB) SaveReceiptWithItem(ctx context.Context, r models.Receipt, item models.Bucketed) (models.Receipt, models.Bucketed, error) {
	var stored []models.Bucketed
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if r, err = insertReceipt(ctx, tx, r); err != nil {
			return err
		}
		stored, err = insertBudgetItems(ctx, tx, []models.Bucketed{item})
		return err
	})
	if err != nil {
		return models.Receipt{}, models.Bucketed{}, err
	}
	return r, stored[0], nil
}

func insertReceipt(ctx context.Context, ex execer, r models.Receipt) (models.Receipt, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Meta.CreatedAt.IsZero() {
		r.Meta.CreatedAt = time.Now().UTC()
	}
	items := r.Items
	if items == nil {
		items = []models.ReceiptItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return r, fmt.Errorf("encode receipt items: %w", err)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO receipts (id, merchant, date, currency, subtotal, tax, total, items_json, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Merchant, r.Date, r.Currency, r.Subtotal, r.Tax, r.Total, string(itemsJSON),
		r.Meta.Source, r.Meta.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return r, fmt.Errorf("insert receipt: %w", err)
	}
	return r, nil
}

const receiptColumns = `id, merchant, date, currency, subtotal, tax, total, items_json, source, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(s scanner) (models.Receipt, error) {
	var (
		r         models.Receipt
		itemsJSON string
		created   string
	)
	err := s.Scan(&r.ID, &r.Merchant, &r.Date, &r.Currency, &r.Subtotal, &r.Tax, &r.Total, &itemsJSON, &r.Meta.Source, &created)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &r.Items); err != nil {
		return r, fmt.Errorf("decode items of receipt %s: %w", r.ID, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		r.Meta.CreatedAt = t
	}
	return r, nil
}

// ListReceipts returns every stored receipt, oldest first.
func (db *DB) ListReceipts(ctx context.Context) ([]models.Receipt, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+receiptColumns+` FROM receipts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	receipts := []models.Receipt{}
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

// GetReceipt returns one receipt by id.
func (db *DB) GetReceipt(ctx context.Context, id string) (models.Receipt, error) {
	row := db.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = ?`, id)
	r, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("query receipt: %w", err)
	}
	return r, nil
}

// DeleteReceipt removes one receipt.
func (db *DB) DeleteReceipt(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return expectOne(res, "receipt", id)
}
