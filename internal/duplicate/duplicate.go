// Package duplicate classifies an incoming receipt against receipts already
// on file.
package duplicate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/budget-ingest/internal/categorize"
	"github.com/insightdelivered/budget-ingest/internal/models"
)

// Scores for each classification.
const (
	ScoreExact = 1.0
	ScoreNear  = 0.7
	ScoreNone  = 0.0
)

// Tolerance is the largest total difference still treated as the same amount.
var Tolerance = decimal.RequireFromString("0.50")

// Compare classifies incoming against existing. Merchants are compared after
// normalization; totals within Tolerance match. A matching date makes the
// pair exact, otherwise near. No recency window is applied.
func Compare(existing, incoming models.Receipt) models.DuplicateResult {
	a, b := categorize.Normalize(existing.Merchant), categorize.Normalize(incoming.Merchant)
	if a == "" || a != b {
		return models.DuplicateResult{Score: ScoreNone, Reason: "different merchant"}
	}

	diff := decimal.NewFromFloat(existing.Total).Sub(decimal.NewFromFloat(incoming.Total)).Abs()
	if diff.GreaterThan(Tolerance) {
		return models.DuplicateResult{
			Score:  ScoreNone,
			Reason: fmt.Sprintf("totals differ by %s", diff.StringFixed(2)),
		}
	}

	if strings.TrimSpace(existing.Date) == strings.TrimSpace(incoming.Date) {
		return models.DuplicateResult{
			Exact:  true,
			Near:   true,
			Score:  ScoreExact,
			Reason: fmt.Sprintf("same merchant, date and total (within %s)", diff.StringFixed(2)),
		}
	}
	return models.DuplicateResult{
		Near:   true,
		Score:  ScoreNear,
		Reason: fmt.Sprintf("same merchant and total (within %s), dates %s and %s", diff.StringFixed(2), existing.Date, incoming.Date),
	}
}

// Match is the strongest duplicate found among existing receipts.
type Match struct {
	Index    int                    `json:"index"`
	Existing models.Receipt         `json:"existing"`
	Result   models.DuplicateResult `json:"result"`
}

// FindBest compares incoming with every existing receipt and returns the
// highest-scoring match. The first receipt wins ties. ok is false when no
// receipt is even a near duplicate.
func FindBest(existing []models.Receipt, incoming models.Receipt) (Match, bool) {
	best := Match{Index: -1}
	for i, r := range existing {
		res := Compare(r, incoming)
		if res.Score > best.Result.Score {
			best = Match{Index: i, Existing: r, Result: res}
			if res.Exact {
				break
			}
		}
	}
	return best, best.Index >= 0
}
