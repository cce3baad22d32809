package entities

import "encoding/json"

// MedicalCondition is a condition stated in the document text.
type MedicalCondition struct {
	Name        string `json:"name"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description,omitempty"`
}

// Medication is a medication mentioned in the document. RxCUI and RxNormData
// are attached later by drug enrichment; a medication without an RxCUI is
// still carried through the pipeline.
type Medication struct {
	Name       string          `json:"name"`
	Dosage     string          `json:"dosage,omitempty"`
	Frequency  string          `json:"frequency,omitempty"`
	Purpose    string          `json:"purpose,omitempty"`
	RxCUI      string          `json:"rxcui,omitempty"`
	RxNormData json.RawMessage `json:"rxnorm_data,omitempty"`
}

// PatientInfo carries whatever patient identity details the document states.
type PatientInfo struct {
	Name string `json:"name,omitempty"`
	Age  string `json:"age,omitempty"`
	Sex  string `json:"sex,omitempty"`
}

// ExtractedMedicalData is the structured view of a document produced by the
// extraction stage. All slices are non-nil after extraction, even when empty.
type ExtractedMedicalData struct {
	Conditions  []MedicalCondition `json:"conditions"`
	Medications []Medication       `json:"medications"`
	Diagnoses   []string           `json:"diagnoses"`
	Symptoms    []string           `json:"symptoms"`
	DoctorName  string             `json:"doctor_name,omitempty"`
	PatientInfo *PatientInfo       `json:"patient_info,omitempty"`
	DateOfVisit string             `json:"date_of_visit,omitempty"`
}

// EmptyExtractedMedicalData returns the stage default used when extraction
// fails: all collections present and empty so downstream stages can proceed.
func EmptyExtractedMedicalData() *ExtractedMedicalData {
	return &ExtractedMedicalData{
		Conditions:  []MedicalCondition{},
		Medications: []Medication{},
		Diagnoses:   []string{},
		Symptoms:    []string{},
	}
}
