package entities

// Interaction severities form a closed set; anything else reported by the
// lookup service is normalized to SeverityModerate.
const (
	SeverityHigh     = "high"
	SeverityModerate = "moderate"
	SeverityLow      = "low"
)

// Inference confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Safety answer risk levels.
const (
	RiskSafe    = "safe"
	RiskCaution = "caution"
	RiskWarning = "warning"
)

// DiagnosedCondition is a condition inferred from the medication list, as
// opposed to one stated in the document text.
type DiagnosedCondition struct {
	Condition      string   `json:"condition"`
	Confidence     string   `json:"confidence"`
	InferredFrom   []string `json:"inferred_from"`
	Description    string   `json:"description,omitempty"`
	CommonSymptoms []string `json:"common_symptoms,omitempty"`
}

// DrugInteraction flags a pairwise interaction between two identified drugs.
type DrugInteraction struct {
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Drug1       string `json:"drug1"`
	Drug2       string `json:"drug2"`
}

// MedicationInsight explains why a medication was prescribed.
type MedicationInsight struct {
	Medication    string   `json:"medication"`
	RxCUI         string   `json:"rxcui,omitempty"`
	WhyPrescribed string   `json:"why_prescribed"`
	TreatmentGoal string   `json:"treatment_goal,omitempty"`
	SideEffects   []string `json:"side_effects,omitempty"`
	Precautions   []string `json:"precautions,omitempty"`
}

// NutritionFacts is the nutrition profile attached to a food recommendation.
type NutritionFacts struct {
	Calories float64  `json:"calories,omitempty"`
	Protein  float64  `json:"protein,omitempty"`
	Carbs    float64  `json:"carbs,omitempty"`
	Fiber    float64  `json:"fiber,omitempty"`
	Vitamins []string `json:"vitamins,omitempty"`
}

// FoodRecommendation is a dietary category suggested for the condition set.
type FoodRecommendation struct {
	Category  string          `json:"category"`
	Foods     []string        `json:"foods"`
	Benefit   string          `json:"benefit,omitempty"`
	Score     int             `json:"score"`
	Nutrition *NutritionFacts `json:"nutrition,omitempty"`
}

// SafetyInsight is one safety question and its answer.
type SafetyInsight struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	RiskLevel string `json:"risk_level"`
}

// DoctorAssessment is the narrative synthesis that anchors the top of the
// report. It is always present, even on total model failure.
type DoctorAssessment struct {
	Greeting      string   `json:"greeting"`
	Diagnosis     string   `json:"diagnosis"`
	TreatmentPlan string   `json:"treatment_plan"`
	Advice        []string `json:"advice"`
	Warnings      []string `json:"warnings"`
	FollowUp      string   `json:"follow_up"`
}
