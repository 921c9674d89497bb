// Package fields holds the heuristics shared by statement and receipt parsing:
// merchant noise stripping, money tokens and date recognition.
package fields

import (
	"regexp"
	"strings"
	"unicode"
)

// UnknownMerchant is used when nothing survives noise stripping.
const UnknownMerchant = "Unknown Merchant"

// MaxMerchantTokens caps how many words of a cleaned description are kept.
const MaxMerchantTokens = 5

// Noise patterns, applied in order. ATM IDs go before anything that would
// eat the bare "ATM" token.
var noisePatterns = []*regexp.Regexp{
	// "Purchase Authorized On 07/31", "AUTH 07/31", "Auth Date: 7/31/24"
	regexp.MustCompile(`(?i)\b(?:authori[sz]ed\s+on|auth(?:orization)?(?:\s+date)?)\s*[:#]?\s*\d{1,2}/\d{1,2}(?:/\d{2,4})?`),
	// TD style "AUT 080324"
	regexp.MustCompile(`(?i)\baut\s+\d{6}\b`),
	// "Posted On 08/02"
	regexp.MustCompile(`(?i)\bposted\s+on(?:\s+\d{1,2}/\d{1,2}(?:/\d{2,4})?)?`),
	// "ATM ID 4521", "ATM #A1B2"
	regexp.MustCompile(`(?i)\batm\s*(?:id|#)\s*[:#]?\s*[a-z0-9]+`),
	// "Ref 1234ABCD", "Conf# 99812", "Reference Number: X1"
	regexp.MustCompile(`(?i)\b(?:ref(?:erence)?|conf(?:irmation)?|trace|trn|txn)\s*(?:no\.?|number|#|id)?\s*[:#]\s*[a-z0-9-]+`),
	regexp.MustCompile(`(?i)\b(?:ref(?:erence)?|conf(?:irmation)?|trace)\s+(?:no\.?\s*|number\s*)?[a-z]*\d[a-z0-9-]*`),
	// masked cards: "Card 1234", "XXXX1234", "****1234", "4111 XXXX XXXX 1111"
	regexp.MustCompile(`(?i)\b\d{4}[ -]?(?:x{4}|\*{4})[ -]?(?:x{4}|\*{4})[ -]?\d{4}\b`),
	regexp.MustCompile(`(?i)(?:\bcard\s*(?:#|no\.?)?\s*(?:x+|\*+)?\s*|(?:\bx{2,}|\*{2,}))\d{4}\b`),
	// phone numbers
	regexp.MustCompile(`\(?\b\d{3}\)?[-. ]\d{3}[-. ]\d{4}\b`),
	// dates and money left in the description
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`),
	regexp.MustCompile(`-?\$?\b(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}\b`),
	// store numbers "#1234"
	regexp.MustCompile(`#\s*\d+`),
}

var leadingPreposition = regexp.MustCompile(`(?i)^(?:from|to|at|for)\b\s*`)

var stateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true,
	"DE": true, "DC": true, "FL": true, "GA": true, "HI": true, "ID": true, "IL": true,
	"IN": true, "IA": true, "KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true, "MT": true, "NE": true,
	"NV": true, "NH": true, "NJ": true, "NM": true, "NY": true, "NC": true, "ND": true,
	"OH": true, "OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true,
	"TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "PR": true,
}

// StripNoise removes statement noise from s and the given extra phrases
// (matched case-insensitively on word boundaries) and collapses whitespace.
func StripNoise(s string, extra ...string) string {
	for _, p := range noisePatterns {
		s = p.ReplaceAllString(s, " ")
	}
	for _, phrase := range extra {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
		s = re.ReplaceAllString(s, " ")
	}

	var kept []string
	for _, tok := range strings.Fields(s) {
		tok = strings.Trim(tok, "*#:;,-_|/\\")
		if tok == "" || stateCodes[tok] || isTransactionID(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// CleanMerchant strips noise and extra phrases, drops a leading preposition
// and keeps the first MaxMerchantTokens words.
func CleanMerchant(s string, extra ...string) string {
	s = StripNoise(s, extra...)
	s = leadingPreposition.ReplaceAllString(s, "")
	tokens := strings.Fields(s)
	if len(tokens) > MaxMerchantTokens {
		tokens = tokens[:MaxMerchantTokens]
	}
	if len(tokens) == 0 {
		return UnknownMerchant
	}
	return strings.Join(tokens, " ")
}

// isTransactionID reports long alphanumeric tokens that contain a digit,
// and bare numbers of five or more digits.
func isTransactionID(tok string) bool {
	digits, letters := 0, 0
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		case r == '-' || r == '*' || r == '.':
		default:
			return false
		}
	}
	if digits == 0 {
		return false
	}
	if letters == 0 {
		return digits >= 5
	}
	return len(tok) >= 10
}
