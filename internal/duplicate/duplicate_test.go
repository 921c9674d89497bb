package duplicate

import (
	"testing"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

func receipt(merchant, date string, total float64) models.Receipt {
	return models.Receipt{Merchant: merchant, Date: date, Total: total, Currency: "USD"}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		existing  models.Receipt
		incoming  models.Receipt
		wantExact bool
		wantNear  bool
		wantScore float64
	}{
		{
			name:      "costco within thirty cents same day",
			existing:  receipt("Costco", "2024-08-03", 45.10),
			incoming:  receipt("Costco", "2024-08-03", 45.40),
			wantExact: true,
			wantNear:  true,
			wantScore: 1.0,
		},
		{
			name:      "exactly fifty cents apart",
			existing:  receipt("Costco", "2024-08-03", 45.10),
			incoming:  receipt("Costco", "2024-08-03", 45.60),
			wantExact: true,
			wantNear:  true,
			wantScore: 1.0,
		},
		{
			name:      "merchant normalized",
			existing:  receipt("TRADER JOE'S", "2024-08-03", 20.00),
			incoming:  receipt("Trader Joe’s", "2024-08-03", 20.00),
			wantExact: true,
			wantNear:  true,
			wantScore: 1.0,
		},
		{
			name:      "different date is near",
			existing:  receipt("Netflix", "2024-07-01", 15.49),
			incoming:  receipt("Netflix", "2024-08-01", 15.49),
			wantNear:  true,
			wantScore: 0.7,
		},
		{
			name:      "total too far apart",
			existing:  receipt("Costco", "2024-08-03", 45.10),
			incoming:  receipt("Costco", "2024-08-03", 45.61),
			wantScore: 0,
		},
		{
			name:      "different merchant",
			existing:  receipt("Costco", "2024-08-03", 45.10),
			incoming:  receipt("Safeway", "2024-08-03", 45.10),
			wantScore: 0,
		},
		{
			name:      "blank merchants never match",
			existing:  receipt("", "2024-08-03", 45.10),
			incoming:  receipt("  ", "2024-08-03", 45.10),
			wantScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.existing, tt.incoming)
			if got.Exact != tt.wantExact || got.Near != tt.wantNear || got.Score != tt.wantScore {
				t.Errorf("got %+v, want exact=%v near=%v score=%v", got, tt.wantExact, tt.wantNear, tt.wantScore)
			}
			if got.Reason == "" {
				t.Error("expected a reason")
			}
			if got.Score < 0 || got.Score > 1 {
				t.Errorf("score out of range: %v", got.Score)
			}
		})
	}
}

func TestCompareMonotonic(t *testing.T) {
	base := receipt("Costco", "2024-08-03", 45.10)
	for _, total := range []float64{44.60, 44.95, 45.10, 45.35, 45.60} {
		same := Compare(base, receipt("Costco", "2024-08-03", total))
		if !same.Exact || !same.Near {
			t.Errorf("total %v same date: got %+v, want exact", total, same)
		}
		other := Compare(base, receipt("Costco", "2024-08-04", total))
		if other.Exact || !other.Near {
			t.Errorf("total %v other date: got %+v, want near only", total, other)
		}
	}
}

func TestFindBest(t *testing.T) {
	existing := []models.Receipt{
		receipt("Safeway", "2024-08-03", 45.10),
		receipt("Costco", "2024-07-20", 45.10),
		receipt("Costco", "2024-08-03", 45.00),
		receipt("Costco", "2024-08-03", 45.20),
	}

	m, ok := FindBest(existing, receipt("Costco", "2024-08-03", 45.10))
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Index != 2 || !m.Result.Exact {
		t.Errorf("got index %d %+v, want first exact at 2", m.Index, m.Result)
	}

	m, ok = FindBest(existing, receipt("Costco", "2024-09-01", 45.10))
	if !ok || m.Index != 1 || m.Result.Exact {
		t.Errorf("got %+v, want near at 1", m)
	}

	if _, ok := FindBest(existing, receipt("Target", "2024-08-03", 45.10)); ok {
		t.Error("expected no match")
	}
	if _, ok := FindBest(nil, receipt("Target", "2024-08-03", 45.10)); ok {
		t.Error("expected no match on empty list")
	}
}
