package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODate is the layout every extracted date is normalized to.
const ISODate = "2006-01-02"

var (
	// YYYY-MM-DD
	datePatternISO = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	// M/D/YYYY, M-D-YYYY, M/D/YY
	datePatternUS = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})\b`)
	// Aug 1, 2024 / August 1st 2024 / Sept. 3, 2024
	datePatternMonth = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// FindDate returns the first recognizable date in text as YYYY-MM-DD.
// ISO dates are tried first, then US numeric dates, then month names.
func FindDate(text string) (string, bool) {
	for _, m := range datePatternISO.FindAllStringSubmatch(text, -1) {
		if d, ok := buildDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	for _, m := range datePatternUS.FindAllStringSubmatch(text, -1) {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		if d, ok := buildDate(year, m[1], m[2]); ok {
			return d, true
		}
	}
	for _, m := range datePatternMonth.FindAllStringSubmatch(text, -1) {
		month := monthIndex[strings.ToLower(m[1])]
		if d, ok := buildDate(m[3], strconv.Itoa(int(month)), m[2]); ok {
			return d, true
		}
	}
	return "", false
}

// DateOrToday returns the first date in text, or now's date when none is found.
func DateOrToday(text string, now time.Time) string {
	if d, ok := FindDate(text); ok {
		return d
	}
	return now.Format(ISODate)
}

// ValidDate reports whether year, month and day form a real calendar date.
func ValidDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

// FormatDate renders a validated date as YYYY-MM-DD.
func FormatDate(year, month, day int) string {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(ISODate)
}

func buildDate(y, m, d string) (string, bool) {
	year, err1 := strconv.Atoi(y)
	month, err2 := strconv.Atoi(m)
	day, err3 := strconv.Atoi(d)
	if err1 != nil || err2 != nil || err3 != nil || !ValidDate(year, month, day) {
		return "", false
	}
	return FormatDate(year, month, day), true
}
