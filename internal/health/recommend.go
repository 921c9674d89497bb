package health

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

// feeLabels mark banking items that are fees rather than debt payments.
var feeLabels = []string{"service fee", "bank fee"}

func debtTotal(banking []models.BudgetItem) float64 {
	var total float64
	for _, it := range banking {
		label := strings.ToLower(it.Category)
		fee := false
		for _, f := range feeLabels {
			if strings.Contains(label, f) {
				fee = true
				break
			}
		}
		if !fee {
			total += it.ActualCost
		}
	}
	return total
}

// Thresholds below which a subscore produces a recommendation.
const (
	ieFloor       = 70
	savingsFloor  = 75
	debtFloor     = 75
	overShare     = 35
	growthIE      = 85
	growthSavings = 75
)

func recommend(res models.HealthScoreResult) []models.Recommendation {
	b := res.Breakdown
	m := res.Metrics
	var recs []models.Recommendation

	if m.TotalIncome <= 0 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Category: "Income",
			Issue:    "No income recorded",
			Action:   "Add your paychecks and other income to the Income bucket",
			Impact:   "Every ratio in the score depends on income",
		})
	}

	if b.IncomeExpenseRatio.Score < ieFloor {
		issue := "Expenses exceed a healthy share of income"
		if m.TotalIncome > 0 {
			issue = fmt.Sprintf("Expenses are %.0f%% of income", m.ExpenseRatio*100)
		}
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Category: "Spending",
			Issue:    issue,
			Action:   "Cut discretionary spending by 10-15%",
			Impact:   "Brings expenses under 80% of income",
		})
	}

	if b.SavingsRate.Score < savingsFloor {
		current := math.Max(0, m.SavingsRate*100)
		target := math.Max(10, current+5)
		p := models.PriorityMedium
		if b.SavingsRate.Score <= 30 {
			p = models.PriorityHigh
		}
		recs = append(recs, models.Recommendation{
			Priority: p,
			Category: "Savings",
			Issue:    fmt.Sprintf("Saving %.1f%% of income", current),
			Action:   fmt.Sprintf("Raise savings to %.0f%% of income", target),
			Impact:   "Builds an emergency fund and long-term stability",
		})
	}

	if b.DebtRatio.Score < debtFloor {
		p := models.PriorityMedium
		if b.DebtRatio.Score <= 30 {
			p = models.PriorityHigh
		}
		recs = append(recs, models.Recommendation{
			Priority: p,
			Category: "Debt",
			Issue:    fmt.Sprintf("Debt payments are %.0f%% of income", m.DebtToIncome*100),
			Action:   "Pay down the highest-interest balance first and avoid new debt",
			Impact:   "Lowers interest costs and frees monthly cash flow",
		})
	}

	for _, key := range balanced {
		d, ok := res.CategoryBreakdown[key]
		if !ok || d.Status != models.BalanceOver || d.Percentage <= overShare {
			continue
		}
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityMedium,
			Category: key.Label(),
			Issue:    fmt.Sprintf("%s is %.1f%% of income (recommended %s)", key.Label(), d.Percentage, d.Band),
			Action:   fmt.Sprintf("Reduce %s spending toward 30%% of income", strings.ToLower(key.Label())),
			Impact:   "Frees room for savings and other priorities",
		})
	}

	if b.IncomeExpenseRatio.Score >= growthIE && b.SavingsRate.Score >= growthSavings {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityLow,
			Category: "Growth",
			Issue:    "Spending and savings are on track",
			Action:   "Consider investing surplus savings or raising retirement contributions",
			Impact:   "Grows long-term wealth",
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})
	if recs == nil {
		recs = []models.Recommendation{}
	}
	return recs
}
