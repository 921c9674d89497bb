package parser

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/budget-ingest/internal/categorize"
	"github.com/insightdelivered/budget-ingest/internal/fields"
	"github.com/insightdelivered/budget-ingest/internal/models"
)

// Options controls a statement parse.
type Options struct {
	// Year resolves M/D dates. Zero means the current year.
	Year int
	// Engine categorizes each transaction. Nil uses the built-in vendor table.
	Engine *categorize.Engine
	// Now is the clock used for the default year.
	Now func() time.Time
	// Debug records what happened to every line.
	Debug bool
}

func (o Options) year() int {
	if o.Year > 0 {
		return o.Year
	}
	if o.Now != nil {
		return o.Now().Year()
	}
	return time.Now().Year()
}

// ParsePages parses the text of each extracted page as one statement.
func ParsePages(pages []string, opts Options) models.ParseResult {
	return Parse(strings.Join(pages, "\n"), opts)
}

// Parse reads every dated line of text as a transaction. Lines that cannot be
// read are recorded in Errors; Parse itself never fails.
func Parse(text string, opts Options) models.ParseResult {
	res := models.ParseResult{
		Transactions: []models.Transaction{},
		Errors:       []models.ParseError{},
	}
	if strings.TrimSpace(text) == "" {
		res.Errors = append(res.Errors, models.ParseError{Line: 0, Reason: "empty input"})
		res.Summary = summarize(nil)
		return res
	}

	engine := opts.Engine
	if engine == nil {
		engine = categorize.Default()
	}
	year := opts.year()

	var (
		prevBalance decimal.Decimal
		havePrev    bool
	)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, raw := range strings.Split(text, "\n") {
		lineNum := i + 1
		line := strings.TrimSpace(raw)
		trace := models.DebugLine{LineNum: lineNum, Text: line}

		switch {
		case line == "":
			trace.Result = "blank"
		case isHeaderLine(line):
			trace.Result = "header"
			havePrev = false
		default:
			lf, txn, err := parseLine(line, year, engine)
			trace.Layout = DetectLayout(line).Name()
			trace.Amounts = lf.candidates
			if err != nil {
				trace.Result = "error"
				res.Errors = append(res.Errors, models.ParseError{
					Line:    lineNum,
					Excerpt: excerpt(line),
					Reason:  err.Error(),
				})
				break
			}
			trace.Result = "parsed"
			res.Transactions = append(res.Transactions, txn)

			if !lf.hasBalance {
				havePrev = false
				break
			}
			balance := decimal.NewFromFloat(lf.balance)
			if havePrev {
				expected := prevBalance.Sub(decimal.NewFromFloat(txn.Amount))
				if !expected.Equal(balance) {
					res.Warnings = append(res.Warnings, models.ParseError{
						Line:    lineNum,
						Excerpt: excerpt(line),
						Reason: fmt.Sprintf("balance %s does not follow from %s and amount %s",
							balance.StringFixed(2), prevBalance.StringFixed(2), decimal.NewFromFloat(txn.Amount).StringFixed(2)),
					})
				}
			}
			prevBalance = balance
			havePrev = true
		}

		if opts.Debug {
			res.Lines = append(res.Lines, trace)
		}
	}

	res.Summary = summarize(res.Transactions)
	return res
}

// parseLine turns one non-header line into a transaction.
func parseLine(line string, year int, engine *categorize.Engine) (lf lineFields, txn models.Transaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser crashed: %v", r)
		}
	}()

	month, day, lineYear, rest, ok := leadingDate(line)
	if !ok {
		return lf, txn, errNoDate
	}
	if lineYear > 0 {
		year = lineYear
	}
	if !fields.ValidDate(year, month, day) {
		return lf, txn, fmt.Errorf("invalid date %d/%d/%d", month, day, year)
	}

	lf, err = DetectLayout(line).read(rest)
	if err != nil {
		return lf, txn, err
	}

	label, phrase := detectType(lf.description)
	amount := lf.amount
	if isCredit(lf.description) {
		amount = -amount
	}
	merchant := fields.CleanMerchant(lf.description, phrase)
	cat := engine.Resolve(categorize.Record{Merchant: merchant, ItemText: label})

	txn = models.Transaction{
		ID:              uuid.NewString(),
		Date:            fields.FormatDate(year, month, day),
		Merchant:        merchant,
		TransactionType: label,
		Amount:          amount,
		CategoryKey:     cat.Key,
		CategoryLabel:   cat.Label,
		RawLine:         line,
	}
	return lf, txn, nil
}

func summarize(txns []models.Transaction) models.ParseSummary {
	total := decimal.Zero
	seen := make(map[models.BucketKey]bool)
	cats := []models.BucketKey{}
	for _, t := range txns {
		total = total.Add(decimal.NewFromFloat(t.Amount))
		if !seen[t.CategoryKey] {
			seen[t.CategoryKey] = true
			cats = append(cats, t.CategoryKey)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	return models.ParseSummary{
		TotalTransactions: len(txns),
		TotalAmount:       total.Round(2).InexactFloat64(),
		Categories:        cats,
	}
}
