// Package parser converts raw statement text into categorized transactions.
//
// Each dated line is read with one of two layouts. Tabular lines separate
// their columns with tabs or runs of spaces; single-line dumps run the
// description and amounts together.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insightdelivered/budget-ingest/internal/fields"
)

// Layout names.
const (
	LayoutTabular    = "tabular"
	LayoutSingleLine = "single-line"
)

// lineFields is what a layout reads from the text after the leading date.
type lineFields struct {
	description string
	amount      float64 // magnitude as printed
	balance     float64
	hasBalance  bool
	candidates  int
}

// Layout reads the description and amount columns of one statement line.
type Layout interface {
	Name() string
	read(rest string) (lineFields, error)
}

var (
	columnSeparator = regexp.MustCompile(`\t|\s{2,}`)
	amountField     = regexp.MustCompile(`^-?\$?\s?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}$`)
)

// DetectLayout picks the layout for a raw line: tabular when it contains a
// tab or two consecutive spaces, single-line otherwise.
func DetectLayout(line string) Layout {
	if columnSeparator.MatchString(strings.TrimSpace(line)) {
		return tabularLayout{}
	}
	return singleLineLayout{}
}

type tabularLayout struct{}

func (tabularLayout) Name() string { return LayoutTabular }

// read takes the first trailing amount column as the amount and, when there
// are two or more, the last as the running balance. A line whose amounts are
// not in their own columns is read as single-line text.
func (tabularLayout) read(rest string) (lineFields, error) {
	var cols []string
	for _, c := range columnSeparator.Split(rest, -1) {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}

	start := len(cols)
	for start > 0 && amountField.MatchString(cols[start-1]) {
		start--
	}
	trailing := cols[start:]
	if len(trailing) == 0 {
		return singleLineLayout{}.read(strings.Join(cols, " "))
	}

	amounts := make([]float64, 0, len(trailing))
	for _, c := range trailing {
		v, err := fields.ParseAmount(c)
		if err != nil {
			return lineFields{}, fmt.Errorf("bad amount %q: %w", c, err)
		}
		amounts = append(amounts, v)
	}

	lf := lineFields{
		description: strings.Join(cols[:start], " "),
		amount:      abs(amounts[0]),
		candidates:  len(amounts),
	}
	if len(amounts) >= 2 {
		lf.balance = amounts[len(amounts)-1]
		lf.hasBalance = true
	}
	return lf, nil
}

type singleLineLayout struct{}

func (singleLineLayout) Name() string { return LayoutSingleLine }

// read uses the second-to-last amount when there are three or more (the
// last being the running balance) and the first otherwise.
func (singleLineLayout) read(rest string) (lineFields, error) {
	amounts := fields.MoneyTokens(rest)
	if len(amounts) == 0 {
		return lineFields{}, errNoAmount
	}

	lf := lineFields{
		description: strings.Join(strings.Fields(fields.MoneyPattern.ReplaceAllString(rest, " ")), " "),
		candidates:  len(amounts),
	}
	if len(amounts) >= 3 {
		lf.amount = abs(amounts[len(amounts)-2])
		lf.balance = amounts[len(amounts)-1]
		lf.hasBalance = true
	} else {
		lf.amount = abs(amounts[0])
	}
	return lf, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
