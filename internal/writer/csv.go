package writer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

// Metadata describes where a batch of transactions came from. It is written
// as "# " rows ahead of the column header.
type Metadata struct {
	Source  string
	Year    int
	Summary models.ParseSummary
}

// CSVWriter writes parsed statement transactions.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the transactions to a new file at path.
func (w *CSVWriter) WriteToFile(path string, meta Metadata, txns []models.Transaction) error {
	return writeFile(path, func(f io.Writer) error { return w.Write(f, meta, txns) })
}

// Write writes the transactions as CSV to out.
func (w *CSVWriter) Write(out io.Writer, meta Metadata, txns []models.Transaction) error {
	cw := csv.NewWriter(out)

	if w.IncludeHeader {
		var rows [][]string
		if meta.Source != "" {
			rows = append(rows, []string{"# Source", meta.Source})
		}
		if meta.Year > 0 {
			rows = append(rows, []string{"# Year", strconv.Itoa(meta.Year)})
		}
		rows = append(rows,
			[]string{"# Transactions", strconv.Itoa(meta.Summary.TotalTransactions)},
			[]string{"# Total", money(meta.Summary.TotalAmount)},
		)
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("writing CSV metadata: %w", err)
		}
	}

	if err := cw.Write([]string{"Date", "Merchant", "Type", "Amount", "Category", "Raw"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, t := range txns {
		row := []string{t.Date, t.Merchant, t.TransactionType, money(t.Amount), t.CategoryLabel, t.RawLine}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReceiptCSVWriter writes one row per receipt.
type ReceiptCSVWriter struct{}

// ReceiptHeader is the column header of a receipt export.
var ReceiptHeader = []string{"merchant", "date", "currency", "subtotal", "tax", "total", "items_count", "categories", "items_json"}

// WriteToFile writes the receipts to a new file at path.
func (w ReceiptCSVWriter) WriteToFile(path string, receipts []models.Receipt) error {
	return writeFile(path, func(f io.Writer) error { return w.Write(f, receipts) })
}

// Write writes receipts as CSV to out. Money columns have two decimals and
// categories are the distinct item categories joined with "|".
func (ReceiptCSVWriter) Write(out io.Writer, receipts []models.Receipt) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(ReceiptHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range receipts {
		items := r.Items
		if items == nil {
			items = []models.ReceiptItem{}
		}
		itemsJSON, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("encoding items of %s: %w", r.Merchant, err)
		}
		row := []string{
			r.Merchant,
			r.Date,
			r.Currency,
			fixed2(r.Subtotal),
			fixed2(r.Tax),
			fixed2(r.Total),
			strconv.Itoa(len(r.Items)),
			itemCategories(r.Items),
			string(itemsJSON),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func itemCategories(items []models.ReceiptItem) string {
	seen := make(map[models.BucketKey]bool)
	var cats []string
	for _, it := range items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		cats = append(cats, string(it.Category))
	}
	return strings.Join(cats, "|")
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file %q: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// money formats a transaction amount, leaving zero blank.
func money(v float64) string {
	if v == 0 {
		return ""
	}
	return fixed2(v)
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
