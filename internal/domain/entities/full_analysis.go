package entities

import "time"

// Document type classification, by precedence: medications present wins over
// conditions present; anything else is a generic medical document.
const (
	DocumentTypePrescription = "prescription"
	DocumentTypeDiagnosis    = "diagnosis"
	DocumentTypeGeneric      = "medical_document"
)

// Key finding statuses.
const (
	FindingStatusNormal   = "normal"
	FindingStatusAbnormal = "abnormal"
	FindingStatusCritical = "critical"
	FindingStatusInfo     = "info"
)

// Follow-up action priorities.
const (
	ActionPriorityHigh    = "high"
	ActionPriorityMedium  = "medium"
	ActionPriorityRoutine = "routine"
)

// KeyFinding is one row of the flattened findings list shown at the top of
// the report.
type KeyFinding struct {
	Category string `json:"category"`
	Finding  string `json:"finding"`
	Status   string `json:"status"`
}

// FollowUpAction is a concrete next step derived from the analysis.
type FollowUpAction struct {
	Action    string `json:"action"`
	Priority  string `json:"priority"`
	Timeframe string `json:"timeframe"`
}

// VitalReading is a single labeled measurement surfaced on the vitals chart.
type VitalReading struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit,omitempty"`
	Status string  `json:"status,omitempty"`
}

// ProgressBar maps a condition to a 0-100 scale for the progress chart.
type ProgressBar struct {
	Label string `json:"label"`
	Value int    `json:"value"`
	Kind  string `json:"kind,omitempty"`
}

// FoodScore is one bar of the food recommendation score chart.
type FoodScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
}

// NutritionBar expresses one nutrient of a food recommendation as a percent
// of its fixed daily value.
type NutritionBar struct {
	Category string `json:"category"`
	Nutrient string `json:"nutrient"`
	Percent  int    `json:"percent"`
}

// TrendPoint is one observation of a historical series.
type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TrendSeries is a named historical series. Series are only emitted when a
// real historical data source exists; they are never synthesized.
type TrendSeries struct {
	Label  string       `json:"label"`
	Points []TrendPoint `json:"points"`
}

// ChartData groups the chart-ready series derived from the analysis.
type ChartData struct {
	Vitals        []VitalReading `json:"vitals"`
	ProgressBars  []ProgressBar  `json:"progress_bars"`
	FoodScores    []FoodScore    `json:"food_scores"`
	NutritionBars []NutritionBar `json:"nutrition_bars"`
	Trends        []TrendSeries  `json:"trends"`
}

// FullAnalysisResult is the cached, user-facing artifact assembled from all
// pipeline stages. CachedAt is set only when the result was served from the
// persisted cache, never on fresh assembly.
type FullAnalysisResult struct {
	Title               string                `json:"title"`
	DocumentType        string                `json:"document_type"`
	Overview            string                `json:"overview"`
	DoctorAssessment    DoctorAssessment      `json:"doctor_assessment"`
	DiagnosedConditions []DiagnosedCondition  `json:"diagnosed_conditions"`
	ExtractedData       *ExtractedMedicalData `json:"extracted_data"`
	MedicationInsights  []MedicationInsight   `json:"medication_insights"`
	DrugInteractions    []DrugInteraction     `json:"drug_interactions"`
	FoodRecommendations []FoodRecommendation  `json:"food_recommendations"`
	SafetyInsights      []SafetyInsight       `json:"safety_insights"`
	KeyFindings         []KeyFinding          `json:"key_findings"`
	Recommendations     []string              `json:"recommendations"`
	FollowUpActions     []FollowUpAction      `json:"follow_up_actions"`
	Conditions          []MedicalCondition    `json:"conditions"`
	Charts              ChartData             `json:"charts"`
	CachedAt            *time.Time            `json:"cached_at,omitempty"`
}
