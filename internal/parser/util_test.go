package parser

import (
	"strings"
	"testing"
)

func TestLeadingDate(t *testing.T) {
	tests := []struct {
		input     string
		wantMonth int
		wantDay   int
		wantYear  int
		wantRest  string
		wantOK    bool
	}{
		{"8/1 Monthly Service Fee", 8, 1, 0, "Monthly Service Fee", true},
		{"12/31\tDeposit\t10.00", 12, 31, 0, "Deposit\t10.00", true},
		{"1/5/2023 Payment", 1, 5, 2023, "Payment", true},
		{"1/5/23 Payment", 1, 5, 2023, "Payment", true},
		{"8/1", 8, 1, 0, "", true},
		{"Payment 8/1", 0, 0, 0, "", false},
		{"8/1Payment", 0, 0, 0, "", false},
		{"", 0, 0, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			month, day, year, rest, ok := leadingDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if month != tt.wantMonth || day != tt.wantDay || year != tt.wantYear || rest != tt.wantRest {
				t.Errorf("got (%d, %d, %d, %q), want (%d, %d, %d, %q)",
					month, day, year, rest, tt.wantMonth, tt.wantDay, tt.wantYear, tt.wantRest)
			}
		})
	}
}

func TestIsHeaderLine(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"Date Description Amount", true},
		{"Transaction history", true},
		{"Description", true},
		{"Ending balance on 8/31", true},
		{"Check No. Date Amount", true},
		{"Deposits/Credits", true},
		{"Withdrawals / Debits", true},
		{"Deposits and other additions", true},
		{"Deposits", true},
		{"Total:", true},
		{"Transactions", true},
		{"Deposit at branch 250.00", false},
		{"Withdrawal Main St ATM", false},
		{"Total fees waived this period", false},
		{"Transaction fee refunded", false},
		{"8/1 Deposit 100.00", false},
		{"8/1 Date Night Bistro 40.00", false},
		{"Datebook Stationers", false},
		{"Costco Whse", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := isHeaderLine(tt.input); got != tt.expected {
				t.Errorf("isHeaderLine(%q): got %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		input      string
		wantLabel  string
		wantPhrase string
	}{
		{"Monthly Service Fee", "Monthly Service Fee", "monthly service fee"},
		{"Overdraft Fee for item", "Overdraft Fee", "overdraft fee"},
		{"Recurring Payment Netflix", "Recurring Payment", "recurring payment"},
		{"Purchase Return Target", "Purchase Return", "purchase return"},
		{"ATM Cash 7-Eleven", "ATM", "atm"},
		{"Online Transfer From Savings", "Transfer", "transfer"},
		{"Refund Amazon", "Refund", "refund"},
		{"ATM Deposit Main St", "Deposit", "deposit"},
		{"Zelle Payment To John Smith", "Payment", "payment"},
		{"Online Transfer Payment Visa", "Payment", "payment"},
		{"Debit Card Purchase Safeway", "Purchase", "purchase"},
		{"Withdrawal Transfer To Savings", "Withdrawal", "withdrawal"},
		{"Zelle To Jane", "Zelle", "zelle"},
		{"Costco Whse", "Purchase", ""},
		{"Treatment Center", "Purchase", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			label, phrase := detectType(tt.input)
			if label != tt.wantLabel || phrase != tt.wantPhrase {
				t.Errorf("got (%q, %q), want (%q, %q)", label, phrase, tt.wantLabel, tt.wantPhrase)
			}
		})
	}
}

func TestIsCredit(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"Deposit Payroll", true},
		{"Purchase Return Target", true},
		{"Refund Amazon", true},
		{"Zelle From Jane", true},
		{"Online Transfer From Savings", true},
		{"Credit Interest", true},
		{"Zelle To Jane", false},
		{"Transfer To Savings", false},
		{"Credit Card Payment", false},
		{"Returned Item Fee", false},
		{"Costco Whse", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := isCredit(tt.input); got != tt.expected {
				t.Errorf("isCredit(%q): got %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	short := "Interest waived"
	if got := excerpt(short); got != short {
		t.Errorf("got %q, want %q", got, short)
	}

	long := strings.Repeat("é", 100)
	got := excerpt(long)
	if want := strings.Repeat("é", maxExcerpt) + "..."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
