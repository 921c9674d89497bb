package models

import "time"

// ReceiptItem is a single purchased line on a receipt.
type ReceiptItem struct {
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Category BucketKey `json:"category,omitempty"`
}

// ReceiptMeta records where a receipt came from.
type ReceiptMeta struct {
	CreatedAt time.Time `json:"createdAt"`
	Source    string    `json:"source"` // "ocr", "pdf", "text", "manual", "legacy"
}

// Receipt is a parsed purchase receipt.
type Receipt struct {
	ID       string        `json:"id"`
	Merchant string        `json:"merchant"`
	Date     string        `json:"date"` // YYYY-MM-DD
	Currency string        `json:"currency"`
	Subtotal float64       `json:"subtotal"`
	Tax      float64       `json:"tax"`
	Total    float64       `json:"total"`
	Items    []ReceiptItem `json:"items"`
	Meta     ReceiptMeta   `json:"meta"`
}

// DuplicateResult classifies an incoming receipt against an existing one.
type DuplicateResult struct {
	Exact  bool    `json:"exact"`
	Near   bool    `json:"near"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}
