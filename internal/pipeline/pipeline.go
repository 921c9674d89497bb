// Package pipeline runs a file through extraction, parsing and
// categorization. Extraction failures never stop a run: they become a
// warning and the downstream stages see empty input.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/budget-ingest/internal/budget"
	"github.com/insightdelivered/budget-ingest/internal/categorize"
	"github.com/insightdelivered/budget-ingest/internal/extractor"
	"github.com/insightdelivered/budget-ingest/internal/ingest"
	"github.com/insightdelivered/budget-ingest/internal/models"
	"github.com/insightdelivered/budget-ingest/internal/parser"
)

// Pipeline holds the collaborators shared by every run.
type Pipeline struct {
	Extractor extractor.Extractor
	Engine    *categorize.Engine
	Now       func() time.Time
	Logger    zerolog.Logger
	Debug     bool
}

// StatementResult is a parsed statement and the budget items derived from it.
type StatementResult struct {
	Filename string             `json:"filename,omitempty"`
	Pages    int                `json:"pages,omitempty"`
	Parse    models.ParseResult `json:"parse"`
	Items    []models.Bucketed  `json:"items"`
	RawText  string             `json:"rawText,omitempty"`
	Warnings []string           `json:"warnings"`
}

// ReceiptResult is a parsed receipt and the bucket chosen for it.
type ReceiptResult struct {
	Receipt  models.Receipt        `json:"receipt"`
	Category categorize.Resolution `json:"category"`
	Item     models.Bucketed       `json:"item"`
	Warnings []string              `json:"warnings"`
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) engine() *categorize.Engine {
	if p.Engine == nil {
		return categorize.Default()
	}
	return p.Engine
}

// extract runs the extractor and turns any failure into a warning. Only
// context cancellation is returned as an error.
func (p *Pipeline) extract(ctx context.Context, path string) (models.RawDocument, []string, error) {
	log := p.Logger.With().Str("path", path).Logger()
	if p.Extractor == nil {
		return models.RawDocument{}, []string{extractor.ErrNoText.Error()}, nil
	}
	doc, err := p.Extractor.Extract(ctx, path)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return doc, nil, ctxErr
	}
	if err != nil {
		log.Warn().Err(err).Msg("extraction failed")
		return models.RawDocument{Filename: doc.Filename, MimeKind: doc.MimeKind}, []string{extractor.ErrNoText.Error() + ": " + err.Error()}, nil
	}
	log.Debug().Int("pages", doc.Pages).Int("chars", len(doc.Text)).Str("kind", string(doc.MimeKind)).Msg("extracted")
	return doc, nil, nil
}

// Statement extracts and parses a statement file. Year resolves M/D dates;
// zero uses the current year.
func (p *Pipeline) Statement(ctx context.Context, path string, year int) (StatementResult, error) {
	doc, warnings, err := p.extract(ctx, path)
	if err != nil {
		return StatementResult{}, err
	}
	res := p.StatementText(doc.Text, year)
	res.Filename = doc.Filename
	res.Pages = doc.Pages
	res.Warnings = append(append([]string{}, warnings...), res.Warnings...)
	return res, nil
}

// StatementText parses statement text that was extracted elsewhere.
func (p *Pipeline) StatementText(text string, year int) StatementResult {
	parsed := parser.Parse(text, parser.Options{
		Year:   year,
		Engine: p.engine(),
		Now:    p.now,
		Debug:  p.Debug,
	})
	p.Logger.Info().
		Int("transactions", len(parsed.Transactions)).
		Int("errors", len(parsed.Errors)).
		Int("warnings", len(parsed.Warnings)).
		Msg("statement parsed")

	res := StatementResult{
		Parse:    parsed,
		Items:    budget.FromTransactions(parsed.Transactions),
		Warnings: []string{},
	}
	if p.Debug {
		res.RawText = text
	}
	return res
}

// Receipt extracts and parses a receipt file.
func (p *Pipeline) Receipt(ctx context.Context, path string) (ReceiptResult, error) {
	doc, warnings, err := p.extract(ctx, path)
	if err != nil {
		return ReceiptResult{}, err
	}
	res, err := p.ReceiptText(doc)
	if err != nil {
		return ReceiptResult{}, err
	}
	res.Warnings = append(append([]string{}, warnings...), res.Warnings...)
	return res, nil
}

// ReceiptText parses an already extracted receipt document.
func (p *Pipeline) ReceiptText(doc models.RawDocument) (ReceiptResult, error) {
	c, err := ingest.Normalize(ingest.ScannedReceipt{
		Text:     doc.Text,
		Filename: doc.Filename,
		MimeKind: doc.MimeKind,
	}, p.engine(), p.now())
	if err != nil {
		return ReceiptResult{}, err
	}
	p.Logger.Info().
		Str("merchant", c.Merchant).
		Float64("total", c.Amount).
		Str("category", string(c.Category.Key)).
		Msg("receipt parsed")

	return ReceiptResult{
		Receipt:  *c.Receipt,
		Category: c.Category,
		Item:     budget.FromCandidate(c),
		Warnings: []string{},
	}, nil
}
