// Package budget converts reviewed records into budget items and aggregates
// the bucket store.
package budget

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/budget-ingest/internal/fields"
	"github.com/insightdelivered/budget-ingest/internal/ingest"
	"github.com/insightdelivered/budget-ingest/internal/models"
)

// FromTransactions turns parsed statement transactions into paid budget
// items. Each item's estimate and actual cost are the transaction's absolute
// amount and its due date is the transaction date.
func FromTransactions(txns []models.Transaction) []models.Bucketed {
	out := make([]models.Bucketed, 0, len(txns))
	for _, t := range txns {
		out = append(out, models.Bucketed{
			CategoryKey: bucketOrMisc(t.CategoryKey),
			Item:        paidItem(transactionLabel(t), t.Amount, t.Date),
		})
	}
	return out
}

// transactionLabel prefers the merchant. Fees keep their type so they stay
// distinguishable from debt payments in the banking bucket.
func transactionLabel(t models.Transaction) string {
	merchant := strings.TrimSpace(t.Merchant)
	known := merchant != "" && merchant != fields.UnknownMerchant
	fee := strings.Contains(strings.ToLower(t.TransactionType), "fee")
	switch {
	case !known:
		return t.TransactionType
	case fee:
		return merchant + " " + t.TransactionType
	default:
		return merchant
	}
}

// FromReceipt turns a receipt into one paid item in the given bucket.
func FromReceipt(r models.Receipt, key models.BucketKey) models.Bucketed {
	return models.Bucketed{
		CategoryKey: bucketOrMisc(key),
		Item:        paidItem(r.Merchant, r.Total, r.Date),
	}
}

// FromCandidate turns a reviewed candidate into a budget item.
func FromCandidate(c ingest.Candidate) models.Bucketed {
	if c.Transaction != nil {
		return FromTransactions([]models.Transaction{*c.Transaction})[0]
	}
	if c.Receipt != nil {
		return FromReceipt(*c.Receipt, c.Category.Key)
	}
	return models.Bucketed{
		CategoryKey: bucketOrMisc(c.Category.Key),
		Item:        paidItem(c.Merchant, c.Amount, c.Date),
	}
}

func paidItem(label string, amount float64, date string) models.BudgetItem {
	cost := fields.Round2(math.Abs(amount))
	return models.BudgetItem{
		ID:         uuid.NewString(),
		Category:   label,
		EstBudget:  cost,
		ActualCost: cost,
		DueDate:    date,
		Status:     models.StatusPaid,
	}
}

func bucketOrMisc(k models.BucketKey) models.BucketKey {
	if k.Valid() {
		return k
	}
	return models.BucketMisc
}

// Merge returns a new bucket map holding the items of b followed by added.
// b is not modified.
func Merge(b models.Buckets, added []models.Bucketed) models.Buckets {
	out := make(models.Buckets, len(b))
	for k, items := range b {
		out[k] = append([]models.BudgetItem(nil), items...)
	}
	for _, a := range added {
		key := bucketOrMisc(a.CategoryKey)
		out[key] = append(out[key], a.Item)
	}
	return out
}

// Totals sums actual costs of non-archived items. The income bucket is
// income; every other bucket is an expense.
func Totals(b models.Buckets) models.Totals {
	income, expenses := decimal.Zero, decimal.Zero
	for k, items := range b {
		for _, it := range items {
			if it.Archived {
				continue
			}
			cost := decimal.NewFromFloat(it.ActualCost)
			if k == models.BucketIncome {
				income = income.Add(cost)
			} else {
				expenses = expenses.Add(cost)
			}
		}
	}
	return models.Totals{
		TotalIncome:   income.Round(2).InexactFloat64(),
		TotalExpenses: expenses.Round(2).InexactFloat64(),
		NetIncome:     income.Sub(expenses).Round(2).InexactFloat64(),
	}
}

// Flatten lists every item of b in bucket display order.
func Flatten(b models.Buckets) []models.Bucketed {
	var out []models.Bucketed
	for _, k := range models.BucketKeys {
		for _, it := range b[k] {
			out = append(out, models.Bucketed{CategoryKey: k, Item: it})
		}
	}
	return out
}
