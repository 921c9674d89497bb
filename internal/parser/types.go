package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTransactionType is used when no keyword matches.
const DefaultTransactionType = "Purchase"

type transactionType struct {
	phrase  string
	label   string
	pattern *regexp.Regexp
}

// Keyword phrases in priority order. Compound phrases come first so that
// "purchase return" is not read as "purchase"; single words follow in a
// fixed order.
var transactionTypes = buildTransactionTypes(
	"purchase return",
	"recurring payment",
	"monthly service fee",
	"monthly maintenance fee",
	"service fee",
	"maintenance fee",
	"overdraft fee",
	"monthly fee",
	"atm withdrawal",
	"purchase",
	"payment",
	"refund",
	"withdrawal",
	"deposit",
	"transfer",
	"atm",
	"debit",
	"credit",
	"zelle",
)

var acronyms = map[string]string{"atm": "ATM"}

var (
	creditPattern     = regexp.MustCompile(`(?i)\b(?:deposit|return|refund|credit|zelle\s+from|transfer\s+from)\b`)
	creditCardPattern = regexp.MustCompile(`(?i)\bcredit\s+card\b`)
)

func buildTransactionTypes(phrases ...string) []transactionType {
	caser := cases.Title(language.English)
	out := make([]transactionType, 0, len(phrases))
	for _, p := range phrases {
		words := strings.Fields(p)
		for i, w := range words {
			if a, ok := acronyms[w]; ok {
				words[i] = a
				continue
			}
			words[i] = caser.String(w)
		}
		out = append(out, transactionType{
			phrase:  p,
			label:   strings.Join(words, " "),
			pattern: regexp.MustCompile(`(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`) + `\b`),
		})
	}
	return out
}

// detectType returns the first keyword phrase found in description, or the
// default type with an empty phrase.
func detectType(description string) (label, phrase string) {
	for _, tt := range transactionTypes {
		if tt.pattern.MatchString(description) {
			return tt.label, tt.phrase
		}
	}
	return DefaultTransactionType, ""
}

// isCredit reports descriptions of money coming in. "Credit card" alone
// does not count.
func isCredit(description string) bool {
	return creditPattern.MatchString(creditCardPattern.ReplaceAllString(description, " "))
}
