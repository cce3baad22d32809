package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/clients/postgres"
	"github.com/zojatech/healthmate/backend/pkg/config"
)

// Seeds a handful of documents with pre-extracted text so the analysis
// pipeline can be exercised locally without the parsing service.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				analysis_conditions,
				food_recommendations,
				document_analyses,
				documents
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to truncate tables: %v", err)
		}
	}

	userID := uuid.NewString()
	now := time.Now()

	samples := []struct {
		fileName string
		fileType string
		text     string
	}{
		{
			fileName: "prescription-lisinopril.pdf",
			fileType: "application/pdf",
			text: "Patient: John Doe. Diagnosis: Hypertension, moderate. " +
				"Rx: Lisinopril 10mg once daily by mouth. " +
				"Rx: Metformin 500mg twice daily with meals. " +
				"Follow up in 3 months for blood pressure review.",
		},
		{
			fileName: "lab-report-lipids.pdf",
			fileType: "application/pdf",
			text: "Lipid panel results. Total cholesterol 242 mg/dL (high). " +
				"LDL 164 mg/dL (high). HDL 38 mg/dL (low). Triglycerides 210 mg/dL. " +
				"Impression: hyperlipidemia. Recommend dietary changes and statin therapy.",
		},
		{
			fileName: "discharge-summary.pdf",
			fileType: "application/pdf",
			text: "Discharge summary. Admitted for community acquired pneumonia. " +
				"Treated with Azithromycin 500mg daily for 5 days. " +
				"Condition resolved. No ongoing medications. Rest advised for one week.",
		},
	}

	for _, s := range samples {
		_, err := pgClient.DB().ExecContext(ctx, `
			INSERT INTO documents (id, user_id, file_name, file_path, file_type, extracted_text, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		`, uuid.NewString(), userID, s.fileName, "seed://"+s.fileName, s.fileType, s.text, now)
		if err != nil {
			log.Fatalf("Failed to seed document %s: %v", s.fileName, err)
		}
		log.Printf("Seeded document %s", s.fileName)
	}

	log.Printf("Seeding complete for user %s", userID)
}
