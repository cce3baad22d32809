package entities

import "time"

// Document represents an uploaded medical document and its stored artifacts.
type Document struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	FileName      string    `json:"file_name" db:"file_name"`
	FilePath      string    `json:"file_path" db:"file_path"`
	FileType      string    `json:"file_type" db:"file_type"`
	ExtractedText string    `json:"extracted_text,omitempty" db:"extracted_text"`
	Summary       string    `json:"summary,omitempty" db:"summary"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
