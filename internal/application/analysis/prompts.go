package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
)

const extractionSystemPrompt = `You are a medical document analyst. Extract structured facts from the document text. Return ONLY valid JSON with this schema:
{
  "conditions": [{"name": string, "severity": "high"|"moderate"|"low", "description": string}],
  "medications": [{"name": string, "dosage": string, "frequency": string, "purpose": string}],
  "diagnoses": string[],
  "symptoms": string[],
  "doctor_name": string (optional),
  "patient_info": {"name": string, "age": string, "sex": string} (optional),
  "date_of_visit": string (optional)
}
Only report facts stated in the text. Use empty arrays when a section has no facts. Do not guess identities or dates. Never output null.`

const inferenceSystemPrompt = `You are a clinical pharmacology assistant. Given a list of prescribed medications, reason about the condition(s) each medication typically treats. Return ONLY a valid JSON array with this schema:
[{
  "condition": string,
  "confidence": "high"|"medium"|"low",
  "inferred_from": string[] (the medication names supporting this inference),
  "description": string (1-2 short sentences, simple language),
  "common_symptoms": string[] (2-5 items)
}]
Group medications that treat the same condition into one entry. Be conservative: use "low" confidence when a medication has many unrelated uses. Keep language simple and non-alarmist.`

const assessmentSystemPrompt = `You are a caring physician writing a summary for a patient who uploaded a medical document. Return ONLY valid JSON with this schema:
{
  "greeting": string (one warm sentence),
  "diagnosis": string (plain-language explanation of what the document shows),
  "treatment_plan": string (what the prescribed treatment is doing),
  "advice": string[] (3-5 practical items),
  "warnings": string[] (1-3 items, only genuinely important ones),
  "follow_up": string (when and why to see a clinician next)
}
Write in second person, simple language, no jargon. Do not invent findings that are not in the provided context. Never output null.`

const medicationInsightSystemPrompt = `You are a clinical pharmacist explaining prescriptions to a patient. For EACH medication in the list, return one entry. Return ONLY a valid JSON array with this schema:
[{
  "medication": string (must match the given name),
  "why_prescribed": string (1-2 plain sentences),
  "treatment_goal": string (one sentence),
  "side_effects": string[] (2-4 common ones),
  "precautions": string[] (2-4 items)
}]
Keep language simple and non-alarmist. Do not include dosing advice beyond what was prescribed.`

const foodSystemPrompt = `You are a nutritionist advising a patient based on their conditions and medications. Return ONLY a valid JSON array with this schema:
[{
  "category": string (e.g. "Leafy Greens"),
  "foods": string[] (3-6 specific foods),
  "benefit": string (why this category helps these conditions),
  "score": number (0-100 suitability score),
  "nutrition": {"calories": number, "protein": number, "carbs": number, "fiber": number, "vitamins": string[]} (typical per serving)
}]
Return 3-6 categories. Consider food-drug interactions (e.g. vitamin K with warfarin, grapefruit with statins) when scoring.`

const safetySystemPrompt = `You are a medication safety advisor. Based on the patient's conditions, medications and known interactions, produce the safety questions this patient is most likely to ask, with answers. Return ONLY a valid JSON array with this schema:
[{
  "question": string (phrased as the patient would ask it),
  "answer": string (2-3 plain sentences),
  "risk_level": "safe"|"caution"|"warning"
}]
Return between 3 and 5 entries. Cover alcohol, driving, common over-the-counter combinations or food where relevant. Be factual, not alarmist.`

func buildExtractionPrompt(text string, maxChars int) string {
	if maxChars > 0 && len(text) > maxChars {
		// Back off to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return "Document text:\n\n" + text
}

// medicationBlock renders the medication list as one prompt block, one
// medication per line.
func medicationBlock(meds []entities.Medication) string {
	var b strings.Builder
	for _, m := range meds {
		b.WriteString("- ")
		b.WriteString(m.Name)
		if m.Dosage != "" {
			b.WriteString(" " + m.Dosage)
		}
		if m.Frequency != "" {
			b.WriteString(", " + m.Frequency)
		}
		if m.Purpose != "" {
			b.WriteString(" (for " + m.Purpose + ")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func conditionBlock(conditions []entities.MedicalCondition, inferred []entities.DiagnosedCondition) string {
	var b strings.Builder
	seen := make(map[string]bool)
	for _, c := range conditions {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		b.WriteString("- " + c.Name)
		if c.Severity != "" {
			b.WriteString(" (severity: " + c.Severity + ")")
		}
		b.WriteString("\n")
	}
	for _, c := range inferred {
		key := strings.ToLower(strings.TrimSpace(c.Condition))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		b.WriteString(fmt.Sprintf("- %s (inferred from medications, confidence: %s)\n", c.Condition, c.Confidence))
	}
	return b.String()
}

func interactionBlock(interactions []entities.DrugInteraction) string {
	var b strings.Builder
	for _, in := range interactions {
		b.WriteString(fmt.Sprintf("- %s + %s [%s]: %s\n", in.Drug1, in.Drug2, in.Severity, in.Description))
	}
	return b.String()
}

func buildAssessmentPrompt(data *entities.ExtractedMedicalData, inferred []entities.DiagnosedCondition, interactions []entities.DrugInteraction) string {
	var b strings.Builder
	b.WriteString("Patient context.\n\nConditions:\n")
	if block := conditionBlock(data.Conditions, inferred); block != "" {
		b.WriteString(block)
	} else {
		b.WriteString("(none documented)\n")
	}
	b.WriteString("\nMedications:\n")
	if block := medicationBlock(data.Medications); block != "" {
		b.WriteString(block)
	} else {
		b.WriteString("(none documented)\n")
	}
	if len(data.Symptoms) > 0 {
		b.WriteString("\nReported symptoms: " + strings.Join(data.Symptoms, ", ") + "\n")
	}
	if len(interactions) > 0 {
		b.WriteString("\nKnown drug interactions:\n")
		b.WriteString(interactionBlock(interactions))
	}
	return b.String()
}
