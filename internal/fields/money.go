package fields

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MoneyPattern matches a decimal amount with exactly two fraction digits,
// optionally comma-grouped and prefixed with a sign or dollar sign.
var MoneyPattern = regexp.MustCompile(`-?\$?\s?\b(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}\b`)

// OCR fix-ups. Tesseract often reads the decimal point as ';' or ':'.
var (
	ocrSemicolon     = regexp.MustCompile(`(\d);(\s*)(\d)`)
	ocrGroupedColon  = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+):(\d{2})\b`)
	ocrTrailingColon = regexp.MustCompile(`(\d):(\s|$)`)
	ocrCommaDecimal  = regexp.MustCompile(`\b(\d+),(\d{2})\b(?:[^,\d]|$)`)
)

// ParseAmount converts a string like "1,234.56", "$25.99" or "-9.50" to a float64.
// Empty input parses as zero.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00A0", "") // non-breaking space

	if s == "" || s == "-" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// MoneyTokens returns every money-like value in text, in order.
func MoneyTokens(text string) []float64 {
	var out []float64
	for _, m := range MoneyPattern.FindAllString(text, -1) {
		v, err := ParseAmount(m)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// LargestAmount returns the largest absolute money value across texts, or 0.
func LargestAmount(texts ...string) float64 {
	best := 0.0
	for _, text := range texts {
		for _, v := range MoneyTokens(text) {
			if a := math.Abs(v); a > best {
				best = a
			}
		}
	}
	return best
}

// SanitizeOCRAmounts repairs amounts mangled by OCR:
//
//	"19,720; 15" -> "19,720.15"
//	"1,234:56"   -> "1,234.56"
//	"4,50 EUR"   -> "4.50 EUR"
func SanitizeOCRAmounts(line string) string {
	line = ocrSemicolon.ReplaceAllString(line, "$1.$3")
	line = ocrGroupedColon.ReplaceAllString(line, "$1.$2")
	line = ocrTrailingColon.ReplaceAllString(line, "$1$2")
	line = ocrCommaDecimal.ReplaceAllStringFunc(line, func(m string) string {
		return strings.Replace(m, ",", ".", 1)
	})
	return line
}

// Round2 rounds v to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
