// Package health computes the composite financial health score of a budget
// and keeps the daily score history.
//
// Scoring is a pure function of its inputs: the same totals and buckets
// always produce the same result.
package health

import (
	"fmt"
	"math"

	"github.com/insightdelivered/budget-ingest/internal/fields"
	"github.com/insightdelivered/budget-ingest/internal/models"
)

// Weights of the five subscores, in percent. They sum to 100.
const (
	WeightIncomeExpense   = 30
	WeightSavings         = 25
	WeightDebt            = 20
	WeightCategoryBalance = 15
	WeightAdherence       = 10
)

// Band is the recommended share of income for a bucket, in percent.
type Band struct {
	Min float64
	Max float64
}

func (b Band) String() string {
	return fmt.Sprintf("%g-%g%%", b.Min, b.Max)
}

// Bands holds the recommended income share of each balanced bucket.
var Bands = map[models.BucketKey]Band{
	models.BucketHousing:        {Min: 25, Max: 30},
	models.BucketTransportation: {Min: 10, Max: 15},
	models.BucketFood:           {Min: 10, Max: 15},
	models.BucketPersonal:       {Min: 5, Max: 10},
	models.BucketHomeOffice:     {Min: 0, Max: 5},
}

// balanced lists the Bands keys in a fixed order so that averaging is stable.
var balanced = []models.BucketKey{
	models.BucketHousing,
	models.BucketTransportation,
	models.BucketFood,
	models.BucketPersonal,
	models.BucketHomeOffice,
}

// Status bands for the overall score.
const (
	healthyFrom = 80
	copingFrom  = 60
)

// Score computes the health of a budget from its totals and bucketed items.
// Archived items are ignored. A non-positive income never divides: the
// ratio-based subscores fall to 0 instead.
func Score(totals models.Totals, buckets models.Buckets) models.HealthScoreResult {
	income := totals.TotalIncome
	live := activeItems(buckets)

	ieRatio, ieScore := incomeExpense(income, totals.TotalExpenses)
	rate, savScore := savings(income, totals.NetIncome)
	debt := debtTotal(live[models.BucketBanking])
	dti, debtScore := debtRatio(income, debt)
	details, balScore := categoryBalance(income, live)
	variance, adhScore := adherence(live)

	breakdown := models.HealthBreakdown{
		IncomeExpenseRatio: subscore(ieScore, WeightIncomeExpense),
		SavingsRate:        subscore(savScore, WeightSavings),
		DebtRatio:          subscore(debtScore, WeightDebt),
		CategoryBalance:    subscore(balScore, WeightCategoryBalance),
		BudgetAdherence:    subscore(adhScore, WeightAdherence),
	}

	weighted := ieScore*WeightIncomeExpense +
		savScore*WeightSavings +
		debtScore*WeightDebt +
		balScore*WeightCategoryBalance +
		adhScore*WeightAdherence
	overall := int(math.Round(weighted / 100))
	if overall < 0 {
		overall = 0
	} else if overall > 100 {
		overall = 100
	}

	res := models.HealthScoreResult{
		OverallScore: overall,
		Status:       statusFor(overall),
		Breakdown:    breakdown,
		Metrics: models.HealthMetrics{
			TotalIncome:    fields.Round2(income),
			TotalExpenses:  fields.Round2(totals.TotalExpenses),
			NetIncome:      fields.Round2(totals.NetIncome),
			ExpenseRatio:   round4(ieRatio),
			SavingsRate:    round4(rate),
			DebtTotal:      fields.Round2(debt),
			DebtToIncome:   round4(dti),
			BudgetVariance: round4(variance),
		},
		CategoryBreakdown: details,
	}
	res.Recommendations = recommend(res)
	return res
}

func statusFor(score int) models.HealthStatus {
	switch {
	case score >= healthyFrom:
		return models.HealthHealthy
	case score >= copingFrom:
		return models.HealthCoping
	default:
		return models.HealthVulnerable
	}
}

func subscore(score float64, weight int) models.Subscore {
	return models.Subscore{Score: fields.Round2(clamp(score)), Weight: float64(weight) / 100}
}

func activeItems(buckets models.Buckets) models.Buckets {
	out := make(models.Buckets, len(buckets))
	for k, items := range buckets {
		for _, it := range items {
			if !it.Archived {
				out[k] = append(out[k], it)
			}
		}
	}
	return out
}

func incomeExpense(income, expenses float64) (ratio, score float64) {
	if income <= 0 {
		return 0, 0
	}
	ratio = expenses / income
	switch {
	case ratio <= 0.70:
		score = 100
	case ratio <= 0.80:
		score = 85
	case ratio <= 0.90:
		score = 70
	case ratio <= 1.00:
		score = 50
	default:
		score = 20
	}
	return ratio, score
}

func savings(income, net float64) (rate, score float64) {
	if income <= 0 {
		return 0, 0
	}
	rate = net / income
	switch {
	case rate >= 0.20:
		score = 100
	case rate >= 0.15:
		score = 90
	case rate >= 0.10:
		score = 75
	case rate >= 0.05:
		score = 50
	case rate > 0:
		score = 30
	default:
		score = 0
	}
	return rate, score
}

func debtRatio(income, debt float64) (dti, score float64) {
	if debt <= 0 {
		return 0, 100
	}
	if income <= 0 {
		return 0, 0
	}
	dti = debt / income
	switch {
	case dti <= 0.15:
		score = 90
	case dti <= 0.20:
		score = 75
	case dti <= 0.30:
		score = 50
	case dti <= 0.40:
		score = 30
	default:
		score = 10
	}
	return dti, score
}

func categoryBalance(income float64, live models.Buckets) (map[models.BucketKey]models.CategoryDetail, float64) {
	details := make(map[models.BucketKey]models.CategoryDetail)
	var sum float64
	var n int
	for _, key := range balanced {
		items := live[key]
		if len(items) == 0 {
			continue
		}
		band := Bands[key]
		spend := actualTotal(items)

		var pct, score float64
		switch {
		case income > 0:
			pct = spend / income * 100
			score = bandScore(pct, band.Max)
		case spend > 0:
			pct, score = 100, 0
		default:
			pct, score = 0, 100
		}

		status := models.BalanceOptimal
		if pct < band.Min {
			status = models.BalanceUnder
		} else if pct > band.Max {
			status = models.BalanceOver
		}

		details[key] = models.CategoryDetail{
			Percentage: fields.Round2(pct),
			Score:      fields.Round2(score),
			Band:       band.String(),
			Status:     status,
		}
		sum += score
		n++
	}
	if n == 0 {
		return details, 100
	}
	return details, sum / float64(n)
}

// bandScore falls linearly from 100 at ceiling to 0 at 1.5x ceiling.
func bandScore(pct, ceiling float64) float64 {
	if pct <= ceiling {
		return 100
	}
	if ceiling <= 0 {
		return 0
	}
	return math.Max(0, 100-200*(pct-ceiling)/ceiling)
}

func adherence(live models.Buckets) (variance, score float64) {
	var est, actual float64
	for _, key := range models.BucketKeys {
		if key == models.BucketIncome {
			continue
		}
		for _, it := range live[key] {
			if it.EstBudget == 0 {
				continue
			}
			est += it.EstBudget
			actual += it.ActualCost
		}
	}
	if est == 0 {
		return 0, 100
	}
	variance = math.Abs(actual-est) / est
	switch {
	case variance <= 0.05:
		score = 100
	case variance <= 0.10:
		score = 90
	case variance <= 0.15:
		score = 75
	case variance <= 0.25:
		score = 50
	default:
		score = 30
	}
	return variance, score
}

func actualTotal(items []models.BudgetItem) float64 {
	var t float64
	for _, it := range items {
		t += it.ActualCost
	}
	return t
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
