package parser

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	errNoAmount = errors.New("no amount")
	errNoDate   = errors.New("no leading date")

	// Leading M/D, optionally M/D/YY or M/D/YYYY.
	leadingDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?(?:\s+|$)`)

	// Column and section headers. Bare "Deposits", "Total" or "Transactions"
	// only count when they make up the whole line.
	headerPattern = regexp.MustCompile(`(?i)^(?:` +
		`(?:date|description|ending|beginning|check\s*no\.?|checks?\s+paid|daily\s+(?:ending\s+)?balance|page\s+\d+)\b` +
		`|(?:deposits?|withdrawals?)\s*(?:/|and\b|&)\s*(?:other\s+)?(?:credits|debits|additions|subtractions|withdrawals|deposits)\b` +
		`|(?:transactions?(?:\s+(?:history|details?|summary|activity))?|totals?|deposits?|withdrawals?)\s*:?\s*$` +
		`)`)
)

// maxExcerpt bounds the line text kept in a ParseError.
const maxExcerpt = 60

// leadingDate reads the M/D date at the start of line and returns the rest.
// year is 0 when the line carries no year of its own.
func leadingDate(line string) (month, day, year int, rest string, ok bool) {
	m := leadingDatePattern.FindStringSubmatchIndex(line)
	if m == nil {
		return 0, 0, 0, "", false
	}
	month, _ = strconv.Atoi(line[m[2]:m[3]])
	day, _ = strconv.Atoi(line[m[4]:m[5]])
	if m[6] >= 0 {
		year, _ = strconv.Atoi(line[m[6]:m[7]])
		if year < 100 {
			year += 2000
		}
	}
	return month, day, year, line[m[1]:], true
}

// startsWithDate checks if a line begins with an M/D date.
func startsWithDate(line string) bool {
	return leadingDatePattern.MatchString(strings.TrimSpace(line))
}

// isHeaderLine reports column headers and section titles. Dated lines are
// never headers.
func isHeaderLine(line string) bool {
	line = strings.TrimSpace(line)
	if startsWithDate(line) {
		return false
	}
	return headerPattern.MatchString(line)
}

// excerpt truncates a line for error reporting.
func excerpt(line string) string {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= maxExcerpt {
		return line
	}
	runes := []rune(line)
	return string(runes[:maxExcerpt]) + "..."
}
