// Package ingest accepts the known shapes of incoming financial records and
// normalizes each one, once, into a Candidate ready for review.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

// Kind names a source record shape.
type Kind string

const (
	KindStatementLine  Kind = "statement"
	KindScannedReceipt Kind = "receipt"
	KindLegacyReceipt  Kind = "legacy-receipt"
	KindManualEntry    Kind = "manual"
)

var (
	// ErrUnknownKind is returned by Decode for a kind it does not know.
	ErrUnknownKind = errors.New("unknown record kind")
	// ErrInvalid marks a record that cannot be normalized.
	ErrInvalid = errors.New("invalid record")
)

// Record is one of StatementLine, ScannedReceipt, LegacyReceipt or ManualEntry.
type Record interface {
	Kind() Kind
}

// StatementLine is a single line of a bank or card statement.
type StatementLine struct {
	Text string `json:"text"`
	Year int    `json:"year,omitempty"`
}

// ScannedReceipt is the extracted text of a receipt image or PDF.
type ScannedReceipt struct {
	Text     string          `json:"text"`
	Filename string          `json:"filename,omitempty"`
	MimeKind models.MimeKind `json:"mimeKind,omitempty"`
}

// LegacyReceipt is a receipt saved by older clients, which used several names
// for the same field. Decoding is case-insensitive, so only true aliases are
// listed.
type LegacyReceipt struct {
	ID           string               `json:"id"`
	Merchant     string               `json:"merchant"`
	Vendor       string               `json:"vendor"`
	Store        string               `json:"store"`
	Date         string               `json:"date"`
	PurchaseDate string               `json:"purchaseDate"`
	Total        *float64             `json:"total"`
	Amount       *float64             `json:"amount"`
	Subtotal     float64              `json:"subtotal"`
	Tax          float64              `json:"tax"`
	Currency     string               `json:"currency"`
	Items        []models.ReceiptItem `json:"items"`
	LineItems    []models.ReceiptItem `json:"lineItems"`
}

// ManualEntry is a budget line typed in by the user.
type ManualEntry struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date,omitempty"`
	Category string  `json:"category,omitempty"`
}

func (StatementLine) Kind() Kind  { return KindStatementLine }
func (ScannedReceipt) Kind() Kind { return KindScannedReceipt }
func (LegacyReceipt) Kind() Kind  { return KindLegacyReceipt }
func (ManualEntry) Kind() Kind    { return KindManualEntry }

// merchant returns the first populated merchant alias.
func (l LegacyReceipt) merchant() string {
	return firstNonEmpty(l.Merchant, l.Vendor, l.Store)
}

func (l LegacyReceipt) date() string {
	return firstNonEmpty(l.Date, l.PurchaseDate)
}

func (l LegacyReceipt) total() (float64, bool) {
	switch {
	case l.Total != nil:
		return *l.Total, true
	case l.Amount != nil:
		return *l.Amount, true
	}
	return 0, false
}

func (l LegacyReceipt) items() []models.ReceiptItem {
	if len(l.Items) > 0 {
		return l.Items
	}
	return l.LineItems
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// Decode reads a JSON record of the given kind.
func Decode(kind Kind, data []byte) (Record, error) {
	var (
		rec Record
		err error
	)
	switch kind {
	case KindStatementLine:
		var r StatementLine
		err = json.Unmarshal(data, &r)
		rec = r
	case KindScannedReceipt:
		var r ScannedReceipt
		err = json.Unmarshal(data, &r)
		rec = r
	case KindLegacyReceipt:
		var r LegacyReceipt
		err = json.Unmarshal(data, &r)
		rec = r
	case KindManualEntry:
		var r ManualEntry
		err = json.Unmarshal(data, &r)
		rec = r
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s record: %w", kind, err)
	}
	return rec, nil
}
