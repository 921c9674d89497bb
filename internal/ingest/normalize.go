package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/budget-ingest/internal/categorize"
	"github.com/insightdelivered/budget-ingest/internal/fields"
	"github.com/insightdelivered/budget-ingest/internal/models"
	"github.com/insightdelivered/budget-ingest/internal/parser"
)

// Candidate is a normalized record awaiting review. Amount follows the
// statement convention: expenses positive, credits negative.
type Candidate struct {
	Kind        Kind                  `json:"kind"`
	Merchant    string                `json:"merchant"`
	Date        string                `json:"date"`
	Amount      float64               `json:"amount"`
	Category    categorize.Resolution `json:"category"`
	Transaction *models.Transaction   `json:"transaction,omitempty"`
	Receipt     *models.Receipt       `json:"receipt,omitempty"`
}

// Normalize converts any known record into a Candidate. A nil engine uses
// the built-in vendor table.
func Normalize(r Record, engine *categorize.Engine, now time.Time) (Candidate, error) {
	if engine == nil {
		engine = categorize.Default()
	}
	switch rec := r.(type) {
	case StatementLine:
		return fromStatementLine(rec, engine, now)
	case ScannedReceipt:
		doc := models.RawDocument{Text: rec.Text, Filename: rec.Filename, MimeKind: rec.MimeKind}
		return fromReceipt(fields.ParseReceipt(doc, now, engine), engine), nil
	case LegacyReceipt:
		return fromLegacy(rec, engine, now)
	case ManualEntry:
		return fromManual(rec, engine, now)
	case nil:
		return Candidate{}, fmt.Errorf("%w: nil record", ErrInvalid)
	default:
		return Candidate{}, fmt.Errorf("%w: %T", ErrUnknownKind, r)
	}
}

func fromStatementLine(rec StatementLine, engine *categorize.Engine, now time.Time) (Candidate, error) {
	res := parser.Parse(rec.Text, parser.Options{
		Year:   rec.Year,
		Engine: engine,
		Now:    func() time.Time { return now },
	})
	if len(res.Transactions) == 0 {
		reason := "no transaction"
		if len(res.Errors) > 0 {
			reason = res.Errors[0].Reason
		}
		return Candidate{}, fmt.Errorf("%w: statement line: %s", ErrInvalid, reason)
	}
	txn := res.Transactions[0]
	return Candidate{
		Kind:     KindStatementLine,
		Merchant: txn.Merchant,
		Date:     txn.Date,
		Amount:   txn.Amount,
		Category: categorize.Resolution{
			Key:   txn.CategoryKey,
			Label: txn.CategoryLabel,
		},
		Transaction: &txn,
	}, nil
}

func fromReceipt(rc models.Receipt, engine *categorize.Engine) Candidate {
	return Candidate{
		Kind:     KindScannedReceipt,
		Merchant: rc.Merchant,
		Date:     rc.Date,
		Amount:   rc.Total,
		Category: engine.Resolve(categorize.Record{Merchant: rc.Merchant}),
		Receipt:  &rc,
	}
}

func fromLegacy(rec LegacyReceipt, engine *categorize.Engine, now time.Time) (Candidate, error) {
	total, ok := rec.total()
	if !ok || math.IsNaN(total) || math.IsInf(total, 0) {
		return Candidate{}, fmt.Errorf("%w: legacy receipt has no total", ErrInvalid)
	}

	merchant := rec.merchant()
	if merchant == "" {
		merchant = fields.UnknownMerchant
	}
	date := fields.DateOrToday(rec.date(), now)

	currency := strings.ToUpper(strings.TrimSpace(rec.Currency))
	if currency == "" {
		currency = fields.DefaultCurrency
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	items := make([]models.ReceiptItem, 0, len(rec.items()))
	for _, it := range rec.items() {
		if it.Category == "" || !it.Category.Valid() {
			it.Category = engine.Category(merchant, it.Name)
		}
		items = append(items, it)
	}

	subtotal := rec.Subtotal
	if subtotal == 0 {
		subtotal = fields.Round2(total - rec.Tax)
	}

	rc := models.Receipt{
		ID:       id,
		Merchant: merchant,
		Date:     date,
		Currency: currency,
		Subtotal: subtotal,
		Tax:      rec.Tax,
		Total:    fields.Round2(math.Abs(total)),
		Items:    items,
		Meta:     models.ReceiptMeta{CreatedAt: now, Source: "legacy"},
	}
	c := fromReceipt(rc, engine)
	c.Kind = KindLegacyReceipt
	return c, nil
}

func fromManual(rec ManualEntry, engine *categorize.Engine, now time.Time) (Candidate, error) {
	if math.IsNaN(rec.Amount) || math.IsInf(rec.Amount, 0) {
		return Candidate{}, fmt.Errorf("%w: amount is not a number", ErrInvalid)
	}
	if rec.Category != "" {
		if _, ok := models.ParseBucket(rec.Category); !ok {
			return Candidate{}, fmt.Errorf("%w: unknown category %q", ErrInvalid, rec.Category)
		}
	}

	merchant := strings.TrimSpace(rec.Merchant)
	if merchant == "" {
		merchant = fields.UnknownMerchant
	}
	return Candidate{
		Kind:     KindManualEntry,
		Merchant: merchant,
		Date:     fields.DateOrToday(rec.Date, now),
		Amount:   fields.Round2(rec.Amount),
		Category: engine.Resolve(categorize.Record{Merchant: merchant, Explicit: rec.Category}),
	}, nil
}
