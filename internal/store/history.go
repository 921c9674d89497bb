package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

// ScoreHistory returns the saved score log ordered by date.
func (db *DB) ScoreHistory(ctx context.Context) ([]models.ScoreEntry, error) {
	rows, err := db.QueryContext(ctx, `SELECT date, score FROM score_history ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("query score history: %w", err)
	}
	defer rows.Close()

	log := []models.ScoreEntry{}
	for rows.Next() {
		var e models.ScoreEntry
		if err := rows.Scan(&e.Date, &e.Score); err != nil {
			return nil, fmt.Errorf("scan score entry: %w", err)
		}
		log = append(log, e)
	}
	return log, rows.Err()
}

// ReplaceScoreHistory stores log as the complete score history.
func (db *DB) ReplaceScoreHistory(ctx context.Context, log []models.ScoreEntry) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM score_history`); err != nil {
			return fmt.Errorf("clear score history: %w", err)
		}
		for _, e := range log {
			if _, err := tx.ExecContext(ctx, `INSERT INTO score_history (date, score) VALUES (?, ?)`, e.Date, e.Score); err != nil {
				return fmt.Errorf("insert score %s: %w", e.Date, err)
			}
		}
		return nil
	})
}
