package models

// HealthStatus is the band an overall score falls into.
type HealthStatus string

const (
	HealthHealthy    HealthStatus = "Healthy"
	HealthCoping     HealthStatus = "Coping"
	HealthVulnerable HealthStatus = "Vulnerable"
)

// Priority orders recommendations.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns 0 for high, 1 for medium and 2 for anything else.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Subscore is one weighted factor of the health score.
type Subscore struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// HealthBreakdown holds the five weighted subscores.
type HealthBreakdown struct {
	IncomeExpenseRatio Subscore `json:"incomeExpenseRatio"`
	SavingsRate        Subscore `json:"savingsRate"`
	DebtRatio          Subscore `json:"debtRatio"`
	CategoryBalance    Subscore `json:"categoryBalance"`
	BudgetAdherence    Subscore `json:"budgetAdherence"`
}

// HealthMetrics are the raw ratios behind the subscores.
type HealthMetrics struct {
	TotalIncome    float64 `json:"totalIncome"`
	TotalExpenses  float64 `json:"totalExpenses"`
	NetIncome      float64 `json:"netIncome"`
	ExpenseRatio   float64 `json:"expenseRatio"`
	SavingsRate    float64 `json:"savingsRate"`
	DebtTotal      float64 `json:"debtTotal"`
	DebtToIncome   float64 `json:"debtToIncome"`
	BudgetVariance float64 `json:"budgetVariance"`
}

// BalanceStatus places a bucket against its recommended band.
type BalanceStatus string

const (
	BalanceUnder   BalanceStatus = "under"
	BalanceOptimal BalanceStatus = "optimal"
	BalanceOver    BalanceStatus = "over"
)

// CategoryDetail is the category-balance result for one bucket.
type CategoryDetail struct {
	Percentage float64       `json:"percentage"`
	Score      float64       `json:"score"`
	Band       string        `json:"band"`
	Status     BalanceStatus `json:"status"`
}

// Recommendation is one actionable suggestion derived from the score.
type Recommendation struct {
	Priority Priority `json:"priority"`
	Category string   `json:"category"`
	Issue    string   `json:"issue"`
	Action   string   `json:"action"`
	Impact   string   `json:"impact"`
}

// HealthScoreResult is the full output of a health score run.
type HealthScoreResult struct {
	OverallScore      int                          `json:"overallScore"`
	Status            HealthStatus                 `json:"status"`
	Breakdown         HealthBreakdown              `json:"breakdown"`
	Metrics           HealthMetrics                `json:"metrics"`
	CategoryBreakdown map[BucketKey]CategoryDetail `json:"categoryBreakdown"`
	Recommendations   []Recommendation             `json:"recommendations"`
}

// ScoreEntry is one day in the score history log.
type ScoreEntry struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Score int    `json:"score"`
}
