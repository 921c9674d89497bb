package fields

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/insightdelivered/budget-ingest/internal/categorize"
	"github.com/insightdelivered/budget-ingest/internal/models"
)

// DefaultCurrency is the only currency receipts are recorded in.
const DefaultCurrency = "USD"

var (
	subtotalPattern = regexp.MustCompile(`(?i)\bsub\s*-?\s*total\b[^\d\n]*(\d[\d,]*\.\d{2})`)
	taxPattern      = regexp.MustCompile(`(?i)\b(?:sales\s+)?tax\b[^\d\n]*(\d[\d,]*\.\d{2})`)
	itemLinePattern = regexp.MustCompile(`^\s*(.*?[A-Za-z].*?)\s+\$?(\d{1,3}(?:,\d{3})*\.\d{2})\s*[A-Z]?\s*$`)
	notItemPattern  = regexp.MustCompile(`(?i)\b(?:sub\s*-?\s*total|total|tax|change|cash|balance|visa|mastercard|amex|discover|debit|credit|tender|amount|due|tip|savings|you saved)\b`)
)

// Words that open receipts but never name the store.
var boilerplate = map[string]bool{
	"receipt": true, "welcome": true, "thank": true, "thanks": true, "you": true,
	"for": true, "shopping": true, "customer": true, "copy": true, "store": true,
	"date": true, "time": true, "total": true, "subtotal": true, "tax": true,
	"cash": true, "visa": true, "card": true, "order": true, "invoice": true,
	"the": true, "and": true, "of": true, "at": true,
}

// ParseReceipt turns extracted receipt text into a Receipt. It never fails:
// missing fields fall back to a zero total, today's date and the misc bucket.
func ParseReceipt(doc models.RawDocument, now time.Time, engine *categorize.Engine) models.Receipt {
	text := doc.Text
	if doc.MimeKind == models.MimeImage {
		text = SanitizeOCRAmounts(text)
	}
	// "_" is a word character and would hide "costco_45.10.jpg" from \b.
	base := ""
	if doc.Filename != "" {
		base = strings.ReplaceAll(filepath.Base(doc.Filename), "_", " ")
	}

	r := models.Receipt{
		ID:       uuid.NewString(),
		Merchant: ReceiptMerchant(text, doc.Filename, engine),
		Date:     DateOrToday(text+"\n"+base, now),
		Currency: DefaultCurrency,
		Total:    Round2(LargestAmount(text, base)),
		Meta: models.ReceiptMeta{
			CreatedAt: now,
			Source:    sourceFor(doc.MimeKind),
		},
	}

	r.Tax = labeledAmount(taxPattern, text)
	if sub := labeledAmount(subtotalPattern, text); sub > 0 {
		r.Subtotal = sub
	} else if r.Total > 0 {
		r.Subtotal = Round2(r.Total - r.Tax)
	}

	for _, line := range strings.Split(text, "\n") {
		m := itemLinePattern.FindStringSubmatch(line)
		if m == nil || notItemPattern.MatchString(m[1]) {
			continue
		}
		price, err := ParseAmount(m[2])
		if err != nil {
			continue
		}
		name := strings.Join(strings.Fields(m[1]), " ")
		r.Items = append(r.Items, models.ReceiptItem{
			Name:     name,
			Price:    price,
			Category: engine.Category(r.Merchant, name),
		})
	}
	return r
}

// ReceiptMerchant picks a merchant name for receipt text. A vendor-table hit
// anywhere in filename or text wins; otherwise the first capitalized phrase
// of the text; otherwise the cleaned filename and text.
func ReceiptMerchant(text, filename string, engine *categorize.Engine) string {
	stem := filenameStem(filename)
	combined := strings.TrimSpace(stem + " " + text)
	if combined == "" {
		return UnknownMerchant
	}
	if e, ok := engine.Vendor(combined); ok {
		return e.Label
	}
	if phrase := capitalizedPhrase(text); phrase != "" {
		return CleanMerchant(phrase)
	}
	return CleanMerchant(strings.TrimSpace(stem + " " + firstLine(text)))
}

// capitalizedPhrase returns the first run of two or more capitalized words,
// or a single all-caps word of three or more letters, from the top of text.
func capitalizedPhrase(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 8 {
		lines = lines[:8]
	}
	for _, line := range lines {
		line = StripNoise(line)
		var run []string
		flush := func() string {
			defer func() { run = run[:0] }()
			if len(run) >= 2 || (len(run) == 1 && isAllCaps(run[0])) {
				return strings.Join(run, " ")
			}
			return ""
		}
		for _, tok := range strings.Fields(line) {
			if isCapitalized(tok) && !boilerplate[strings.ToLower(strings.Trim(tok, ".,'!:"))] {
				run = append(run, tok)
				continue
			}
			if p := flush(); p != "" {
				return p
			}
		}
		if p := flush(); p != "" {
			return p
		}
	}
	return ""
}

func isCapitalized(tok string) bool {
	for i, r := range tok {
		if i == 0 {
			return unicode.IsUpper(r)
		}
	}
	return false
}

func isAllCaps(tok string) bool {
	letters := 0
	for _, r := range tok {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 3
}

func labeledAmount(p *regexp.Regexp, text string) float64 {
	m := p.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := ParseAmount(m[1])
	if err != nil {
		return 0
	}
	return Round2(v)
}

func filenameStem(filename string) string {
	if filename == "" {
		return ""
	}
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(stem)
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func sourceFor(kind models.MimeKind) string {
	switch kind {
	case models.MimeImage:
		return "ocr"
	case models.MimePDF:
		return "pdf"
	default:
		return "text"
	}
}
