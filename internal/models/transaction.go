package models

// Transaction represents a single parsed statement line.
// Amount is positive for money out and negative for money in.
type Transaction struct {
	ID              string    `json:"id"`
	Date            string    `json:"date"` // YYYY-MM-DD
	Merchant        string    `json:"merchant"`
	TransactionType string    `json:"transactionType"`
	Amount          float64   `json:"amount"`
	CategoryKey     BucketKey `json:"categoryKey"`
	CategoryLabel   string    `json:"categoryLabel"`
	RawLine         string    `json:"rawLine"`
}

// IsCredit reports whether the transaction moved money into the account.
func (t Transaction) IsCredit() bool {
	return t.Amount < 0
}

// MimeKind classifies the file a RawDocument was extracted from.
type MimeKind string

const (
	MimePDF   MimeKind = "pdf"
	MimeImage MimeKind = "image"
	MimeText  MimeKind = "text"
)

// RawDocument is the text produced by an extraction pass over one file.
// It is discarded once parsed.
type RawDocument struct {
	Text     string   `json:"text"`
	Filename string   `json:"filename"`
	MimeKind MimeKind `json:"mimeKind"`
	Pages    int      `json:"pages,omitempty"`
}

// ParseError records a statement line that could not be turned into a transaction.
type ParseError struct {
	Line    int    `json:"line"` // 1-based; 0 for whole-input errors
	Excerpt string `json:"excerpt,omitempty"`
	Reason  string `json:"reason"`
}

// DebugLine captures what the parser did with each input line.
type DebugLine struct {
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	Layout  string `json:"layout,omitempty"` // "tabular" or "single-line"
	Result  string `json:"result"`           // "parsed", "header", "blank", "error"
	Amounts int    `json:"amounts,omitempty"`
}

// ParseSummary aggregates the transactions of one parse.
type ParseSummary struct {
	TotalTransactions int         `json:"totalTransactions"`
	TotalAmount       float64     `json:"totalAmount"`
	Categories        []BucketKey `json:"categories"`
}

// ParseResult is the outcome of parsing one statement dump.
type ParseResult struct {
	Transactions []Transaction `json:"transactions"`
	Errors       []ParseError  `json:"errors"`
	Warnings     []ParseError  `json:"warnings,omitempty"`
	Summary      ParseSummary  `json:"summary"`
	Lines        []DebugLine   `json:"debugLines,omitempty"`
}
