package analysis

import "github.com/zojatech/healthmate/backend/internal/application/generation"

// Stage payloads with a fixed object shape are validated against a JSON
// Schema before unmarshalling, so a structurally broken model response is
// caught at the stage boundary and replaced by the stage default. The
// schemas only pin what downstream code relies on; extra keys are allowed.

var extractionSchema = generation.MustCompileSchema("extraction.json", `{
	"type": "object",
	"required": ["conditions", "medications", "diagnoses", "symptoms"],
	"properties": {
		"conditions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string"},
					"severity": {"type": "string"},
					"description": {"type": "string"}
				}
			}
		},
		"medications": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string"},
					"dosage": {"type": "string"},
					"frequency": {"type": "string"},
					"purpose": {"type": "string"}
				}
			}
		},
		"diagnoses": {"type": "array", "items": {"type": "string"}},
		"symptoms": {"type": "array", "items": {"type": "string"}}
	}
}`)

var assessmentSchema = generation.MustCompileSchema("assessment.json", `{
	"type": "object",
	"required": ["greeting", "diagnosis", "treatment_plan"],
	"properties": {
		"greeting": {"type": "string"},
		"diagnosis": {"type": "string"},
		"treatment_plan": {"type": "string"},
		"advice": {"type": "array", "items": {"type": "string"}},
		"warnings": {"type": "array", "items": {"type": "string"}},
		"follow_up": {"type": "string"}
	}
}`)
