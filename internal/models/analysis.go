package models

import "time"

// InvestmentAssessment is a narrative assessment produced elsewhere.
// It is carried through an analysis untouched.
type InvestmentAssessment struct {
	InvestmentRating   string   `json:"investment_rating,omitempty"`
	Recommendation     string   `json:"recommendation,omitempty"`
	SuggestedMaxPrice  *float64 `json:"suggested_max_price,omitempty"`
	ExpectedROI        *float64 `json:"expected_roi,omitempty"`
	KeyConcerns        []string `json:"key_concerns,omitempty"`
	Opportunities      []string `json:"opportunities,omitempty"`
	AdditionalInsights string   `json:"additional_insights,omitempty"`
}

// AnalysisRequest is the input for one analysis run.
type AnalysisRequest struct {
	ID            string                `json:"id,omitempty"`
	Target        PropertyRecord        `json:"target"`
	Candidates    []PropertyRecord      `json:"candidates"`
	PurchasePrice *float64              `json:"purchase_price,omitempty"`
	Renovation    *RenovationPlan       `json:"renovation,omitempty"`
	Assessment    *InvestmentAssessment `json:"assessment,omitempty"`
	AsOf          *time.Time            `json:"as_of,omitempty"`
}

// AnalysisReport is the full numeric output of one analysis run.
type AnalysisReport struct {
	ID          string                `json:"id"`
	CreatedAt   time.Time             `json:"created_at"`
	AsOf        time.Time             `json:"as_of"`
	Target      PropertyRecord        `json:"target"`
	Search      SearchWindow          `json:"search"`
	Comparables []ComparableCandidate `json:"comparables"`
	Arv         ArvResult             `json:"arv"`
	Renovation  BudgetTotals          `json:"renovation"`
	Investment  InvestmentMetrics     `json:"investment"`
	Assessment  *InvestmentAssessment `json:"assessment,omitempty"`
	DataIssues  []string              `json:"data_issues,omitempty"`
}

// AnalysisSummary is the listing view of a stored analysis.
type AnalysisSummary struct {
	ID             string     `json:"id"`
	TargetID       string     `json:"target_id"`
	Status         string     `json:"status"`
	Arv            float64    `json:"arv"`
	Confidence     Confidence `json:"confidence"`
	CompCount      int        `json:"comp_count"`
	Profit         float64    `json:"profit"`
	ROIPercentage  *float64   `json:"roi_percentage"`
	Rule70MaxPrice float64    `json:"rule_70_max_price"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
