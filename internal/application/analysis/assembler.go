package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
)

// Fixed daily-value denominators for the nutrition chart.
const (
	dailyValueProteinGrams = 50.0
	dailyValueFiberGrams   = 28.0
	dailyValueCalories     = 2000.0
)

type assembleInput struct {
	Document     *entities.Document
	Data         *entities.ExtractedMedicalData
	Inferred     []entities.DiagnosedCondition
	Interactions []entities.DrugInteraction
	Assessment   entities.DoctorAssessment
	Insights     []entities.MedicationInsight
	Foods        []entities.FoodRecommendation
	Safety       []entities.SafetyInsight
	MaxRecs      int
}

// assembleResult deterministically merges all stage outputs into the final
// artifact. No external calls happen here.
func assembleResult(in assembleInput) *entities.FullAnalysisResult {
	data := in.Data
	if data == nil {
		data = entities.EmptyExtractedMedicalData()
	}

	return &entities.FullAnalysisResult{
		Title:               buildTitle(in.Document),
		DocumentType:        classifyDocumentType(data),
		Overview:            composeOverview(data, in.Interactions, in.Foods),
		DoctorAssessment:    in.Assessment,
		DiagnosedConditions: orEmptyInferred(in.Inferred),
		ExtractedData:       data,
		MedicationInsights:  orEmptyInsights(in.Insights),
		DrugInteractions:    orEmptyInteractions(in.Interactions),
		FoodRecommendations: orEmptyFoods(in.Foods),
		SafetyInsights:      orEmptySafety(in.Safety),
		KeyFindings:         buildKeyFindings(data, in.Inferred, in.Interactions),
		Recommendations:     buildRecommendations(in.Assessment, in.Insights, in.MaxRecs),
		FollowUpActions:     buildFollowUpActions(data, in.Interactions),
		Conditions:          mergeConditions(data.Conditions, in.Inferred),
		Charts:              buildCharts(data, in.Inferred, in.Foods),
	}
}

func buildTitle(doc *entities.Document) string {
	if doc == nil || strings.TrimSpace(doc.FileName) == "" {
		return "Medical Document Analysis"
	}
	return "Analysis of " + strings.TrimSpace(doc.FileName)
}

// classifyDocumentType applies the precedence: medications win over
// conditions; anything else is a generic medical document.
func classifyDocumentType(data *entities.ExtractedMedicalData) string {
	switch {
	case len(data.Medications) > 0:
		return entities.DocumentTypePrescription
	case len(data.Conditions) > 0:
		return entities.DocumentTypeDiagnosis
	default:
		return entities.DocumentTypeGeneric
	}
}

// composeOverview writes the clinical-register summary programmatically.
// The interaction sentence is severity-gated: high-risk findings get the
// seek-care phrasing, everything else the review phrasing.
func composeOverview(data *entities.ExtractedMedicalData, interactions []entities.DrugInteraction, foods []entities.FoodRecommendation) string {
	parts := []string{
		fmt.Sprintf(
			"This document review identified %d documented condition(s) and %d medication(s).",
			len(data.Conditions), len(data.Medications),
		),
	}

	if n := len(interactions); n > 0 {
		if hasHighSeverity(interactions) {
			parts = append(parts, fmt.Sprintf(
				"%d high-risk drug interaction(s) were identified; seek medical care promptly.", n,
			))
		} else {
			parts = append(parts, fmt.Sprintf(
				"%d potential drug interaction(s) were detected; review them with your clinician.", n,
			))
		}
	}

	if n := len(foods); n > 0 {
		parts = append(parts, fmt.Sprintf("%d dietary recommendation(s) are included to support management.", n))
	}

	return strings.Join(parts, " ")
}

func hasHighSeverity(interactions []entities.DrugInteraction) bool {
	for _, in := range interactions {
		if in.Severity == entities.SeverityHigh {
			return true
		}
	}
	return false
}

// buildKeyFindings flattens conditions, medications and interactions into
// one status-tagged list.
func buildKeyFindings(data *entities.ExtractedMedicalData, inferred []entities.DiagnosedCondition, interactions []entities.DrugInteraction) []entities.KeyFinding {
	findings := make([]entities.KeyFinding, 0)

	for _, c := range data.Conditions {
		status := entities.FindingStatusInfo
		switch strings.ToLower(c.Severity) {
		case entities.SeverityHigh:
			status = entities.FindingStatusCritical
		case entities.SeverityModerate, "medium":
			status = entities.FindingStatusAbnormal
		case entities.SeverityLow:
			status = entities.FindingStatusNormal
		}
		findings = append(findings, entities.KeyFinding{
			Category: "Condition",
			Finding:  describeCondition(c),
			Status:   status,
		})
	}

	for _, c := range inferred {
		status := entities.FindingStatusInfo
		if c.Confidence == entities.ConfidenceHigh {
			status = entities.FindingStatusAbnormal
		}
		findings = append(findings, entities.KeyFinding{
			Category: "Inferred Condition",
			Finding:  fmt.Sprintf("%s (inferred from %s)", c.Condition, strings.Join(c.InferredFrom, ", ")),
			Status:   status,
		})
	}

	for _, m := range data.Medications {
		finding := m.Name
		if m.Dosage != "" {
			finding += " " + m.Dosage
		}
		if m.Purpose != "" {
			finding += " - " + m.Purpose
		}
		findings = append(findings, entities.KeyFinding{
			Category: "Medication",
			Finding:  finding,
			Status:   entities.FindingStatusInfo,
		})
	}

	for _, in := range interactions {
		status := entities.FindingStatusAbnormal
		if in.Severity == entities.SeverityHigh {
			status = entities.FindingStatusCritical
		}
		findings = append(findings, entities.KeyFinding{
			Category: "Drug Interaction",
			Finding:  fmt.Sprintf("%s + %s: %s", in.Drug1, in.Drug2, in.Description),
			Status:   status,
		})
	}

	return findings
}

func describeCondition(c entities.MedicalCondition) string {
	if c.Severity != "" {
		return fmt.Sprintf("%s (severity: %s)", c.Name, c.Severity)
	}
	return c.Name
}

// buildRecommendations flattens the assessment's advice with treatment goals
// and precautions from the medication insights, capped to keep the UI
// surface bounded.
func buildRecommendations(assessment entities.DoctorAssessment, insights []entities.MedicationInsight, maxRecs int) []string {
	recs := make([]string, 0, maxRecs)
	seen := make(map[string]bool)

	add := func(rec string) {
		rec = strings.TrimSpace(rec)
		if rec == "" || seen[strings.ToLower(rec)] || len(recs) >= maxRecs {
			return
		}
		seen[strings.ToLower(rec)] = true
		recs = append(recs, rec)
	}

	for _, a := range assessment.Advice {
		add(a)
	}
	for _, in := range insights {
		if in.TreatmentGoal != "" {
			add(in.Medication + ": " + in.TreatmentGoal)
		}
	}
	for _, in := range insights {
		for _, p := range in.Precautions {
			add(p)
		}
	}
	return recs
}

func buildFollowUpActions(data *entities.ExtractedMedicalData, interactions []entities.DrugInteraction) []entities.FollowUpAction {
	actions := make([]entities.FollowUpAction, 0)

	if hasHighSeverity(interactions) {
		actions = append(actions, entities.FollowUpAction{
			Action:    "Discuss the flagged high-risk drug interaction with your doctor or pharmacist",
			Priority:  entities.ActionPriorityHigh,
			Timeframe: "immediate",
		})
	}
	for _, c := range data.Conditions {
		if strings.EqualFold(c.Severity, entities.SeverityHigh) {
			actions = append(actions, entities.FollowUpAction{
				Action:    "Schedule a follow-up appointment for " + c.Name,
				Priority:  entities.ActionPriorityMedium,
				Timeframe: "2 weeks",
			})
		}
	}
	if len(data.Medications) > 0 {
		actions = append(actions, entities.FollowUpAction{
			Action:    "Take medications as prescribed and monitor for side effects",
			Priority:  entities.ActionPriorityRoutine,
			Timeframe: "daily",
		})
	}
	return actions
}

// mergeConditions joins documented and inferred conditions into one list,
// de-duplicated by name.
func mergeConditions(documented []entities.MedicalCondition, inferred []entities.DiagnosedCondition) []entities.MedicalCondition {
	merged := make([]entities.MedicalCondition, 0, len(documented)+len(inferred))
	seen := make(map[string]bool)

	for _, c := range documented {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, c)
	}
	for _, c := range inferred {
		key := strings.ToLower(strings.TrimSpace(c.Condition))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, entities.MedicalCondition{
			Name:        c.Condition,
			Description: c.Description,
		})
	}
	return merged
}

// buildCharts derives chart-ready series from the analysis. Trend series
// require a real historical data source; none exists for a single document,
// so Trends stays empty rather than being synthesized.
func buildCharts(data *entities.ExtractedMedicalData, inferred []entities.DiagnosedCondition, foods []entities.FoodRecommendation) entities.ChartData {
	charts := entities.ChartData{
		Vitals:        []entities.VitalReading{},
		ProgressBars:  []entities.ProgressBar{},
		FoodScores:    []entities.FoodScore{},
		NutritionBars: []entities.NutritionBar{},
		Trends:        []entities.TrendSeries{},
	}

	for _, c := range data.Conditions {
		charts.ProgressBars = append(charts.ProgressBars, entities.ProgressBar{
			Label: c.Name,
			Value: severityScale(c.Severity),
			Kind:  "severity",
		})
	}
	for _, c := range inferred {
		charts.ProgressBars = append(charts.ProgressBars, entities.ProgressBar{
			Label: c.Condition,
			Value: confidenceScale(c.Confidence),
			Kind:  "confidence",
		})
	}

	for _, f := range foods {
		charts.FoodScores = append(charts.FoodScores, entities.FoodScore{
			Category: f.Category,
			Score:    f.Score,
		})
		if f.Nutrition == nil {
			continue
		}
		charts.NutritionBars = append(charts.NutritionBars,
			entities.NutritionBar{
				Category: f.Category,
				Nutrient: "protein",
				Percent:  dailyValuePercent(f.Nutrition.Protein, dailyValueProteinGrams),
			},
			entities.NutritionBar{
				Category: f.Category,
				Nutrient: "fiber",
				Percent:  dailyValuePercent(f.Nutrition.Fiber, dailyValueFiberGrams),
			},
			entities.NutritionBar{
				Category: f.Category,
				Nutrient: "calories",
				Percent:  dailyValuePercent(f.Nutrition.Calories, dailyValueCalories),
			},
		)
	}

	return charts
}

// severityScale maps condition severity to a 0-100 scale.
func severityScale(severity string) int {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case entities.SeverityHigh, "severe":
		return 85
	case entities.SeverityModerate, "medium":
		return 60
	case entities.SeverityLow, "mild":
		return 35
	default:
		return 50
	}
}

// confidenceScale maps inference confidence to a 0-100 scale.
func confidenceScale(confidence string) int {
	switch confidence {
	case entities.ConfidenceHigh:
		return 80
	case entities.ConfidenceLow:
		return 30
	default:
		return 55
	}
}

func dailyValuePercent(amount, dailyValue float64) int {
	if amount <= 0 || dailyValue <= 0 {
		return 0
	}
	pct := int(math.Round(amount / dailyValue * 100))
	if pct > 100 {
		pct = 100
	}
	return pct
}

func orEmptyInferred(in []entities.DiagnosedCondition) []entities.DiagnosedCondition {
	if in == nil {
		return []entities.DiagnosedCondition{}
	}
	return in
}

func orEmptyInsights(in []entities.MedicationInsight) []entities.MedicationInsight {
	if in == nil {
		return []entities.MedicationInsight{}
	}
	return in
}

func orEmptyInteractions(in []entities.DrugInteraction) []entities.DrugInteraction {
	if in == nil {
		return []entities.DrugInteraction{}
	}
	return in
}

func orEmptyFoods(in []entities.FoodRecommendation) []entities.FoodRecommendation {
	if in == nil {
		return []entities.FoodRecommendation{}
	}
	return in
}

func orEmptySafety(in []entities.SafetyInsight) []entities.SafetyInsight {
	if in == nil {
		return []entities.SafetyInsight{}
	}
	return in
}
