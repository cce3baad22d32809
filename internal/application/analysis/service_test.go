package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/domain/providers"
	"github.com/zojatech/healthmate/backend/internal/domain/repositories"
	"github.com/zojatech/healthmate/backend/pkg/config"
	apperrors "github.com/zojatech/healthmate/backend/pkg/errors"
)

// Mocks

type MockDocumentRepo struct {
	mock.Mock
}

func (m *MockDocumentRepo) GetByID(ctx context.Context, id string) (*entities.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Document), args.Error(1)
}

func (m *MockDocumentRepo) UpdateExtractedText(ctx context.Context, id, text string) error {
	args := m.Called(ctx, id, text)
	return args.Error(0)
}

type MockAnalysisRepo struct {
	mock.Mock
}

func (m *MockAnalysisRepo) GetCurrent(ctx context.Context, documentID string) (*entities.FullAnalysisResult, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FullAnalysisResult), args.Error(1)
}

func (m *MockAnalysisRepo) Upsert(ctx context.Context, documentID, userID string, result *entities.FullAnalysisResult) error {
	args := m.Called(ctx, documentID, userID, result)
	return args.Error(0)
}

func (m *MockAnalysisRepo) ReplaceFoodRecommendations(ctx context.Context, documentID string, recs []entities.FoodRecommendation) error {
	args := m.Called(ctx, documentID, recs)
	return args.Error(0)
}

func (m *MockAnalysisRepo) UpsertConditions(ctx context.Context, records []repositories.ConditionRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

type MockParser struct {
	mock.Mock
}

func (m *MockParser) Parse(ctx context.Context, filePath, mimeType string) (string, error) {
	args := m.Called(ctx, filePath, mimeType)
	return args.String(0), args.Error(1)
}

type MockInteractionChecker struct {
	mock.Mock
}

func (m *MockInteractionChecker) CheckInteractions(ctx context.Context, rxcuis []string) ([]entities.DrugInteraction, error) {
	args := m.Called(ctx, rxcuis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.DrugInteraction), args.Error(1)
}

// fakeDrugLookup resolves names through a function, safe for concurrent use.
type fakeDrugLookup struct {
	mu    sync.Mutex
	fn    func(name string) (*providers.DrugConcept, error)
	calls int
}

func (f *fakeDrugLookup) Search(ctx context.Context, name string) (*providers.DrugConcept, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(name)
}

// fakeGenerator answers each stage by its system prompt.
type fakeGenerator struct {
	responses map[string]string
	err       error
	calls     []string
}

func (f *fakeGenerator) Generate(ctx context.Context, req providers.GenerationRequest) (string, error) {
	f.calls = append(f.calls, req.System)
	if f.err != nil {
		return "", f.err
	}
	if resp, ok := f.responses[req.System]; ok {
		return resp, nil
	}
	return "", providers.ErrGenerationUnavailable
}

func (f *fakeGenerator) Name() string { return "fake" }

const storedText = "Patient diagnosed with hypertension. Prescribed Lisinopril 10mg daily and Ibuprofen 400mg as needed."

func testDocument() *entities.Document {
	return &entities.Document{
		ID:            "doc-1",
		UserID:        "user-1",
		FileName:      "prescription.pdf",
		FilePath:      "/uploads/prescription.pdf",
		FileType:      "application/pdf",
		ExtractedText: storedText,
	}
}

func newTestService(
	documents repositories.DocumentRepository,
	analyses repositories.AnalysisRepository,
	parser providers.DocumentParser,
	generator providers.TextGenerator,
	drugs providers.DrugLookupProvider,
	interactions providers.DrugInteractionProvider,
) *AnalysisService {
	return NewAnalysisService(documents, analyses, parser, generator, drugs, interactions, nil, config.PipelineConfig{})
}

func TestRunFullAnalysis_ValidatesDocumentID(t *testing.T) {
	svc := newTestService(new(MockDocumentRepo), new(MockAnalysisRepo), nil, &fakeGenerator{}, nil, nil)

	_, err := svc.RunFullAnalysis(context.Background(), "", "user-1", false)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestRunFullAnalysis_CacheHitSkipsPipeline(t *testing.T) {
	cachedAt := time.Now().Add(-time.Hour)
	cached := &entities.FullAnalysisResult{
		Title:        "Analysis of prescription.pdf",
		DocumentType: entities.DocumentTypePrescription,
		CachedAt:     &cachedAt,
	}

	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)
	generator := &fakeGenerator{}
	analyses.On("GetCurrent", mock.Anything, "doc-1").Return(cached, nil)

	svc := newTestService(documents, analyses, nil, generator, nil, nil)
	result, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", false)

	require.NoError(t, err)
	assert.Same(t, cached, result)
	assert.NotNil(t, result.CachedAt)
	assert.Empty(t, generator.calls)
	documents.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	analyses.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunFullAnalysis_ForceRefreshBypassesCache(t *testing.T) {
	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)
	generator := &fakeGenerator{err: providers.ErrGenerationUnavailable}

	documents.On("GetByID", mock.Anything, "doc-1").Return(testDocument(), nil)
	analyses.On("Upsert", mock.Anything, "doc-1", "user-1", mock.Anything).Return(nil)
	analyses.On("ReplaceFoodRecommendations", mock.Anything, "doc-1", mock.Anything).Return(nil)

	svc := newTestService(documents, analyses, nil, generator, nil, nil)
	result, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", true)

	require.NoError(t, err)
	require.NotNil(t, result)
	analyses.AssertNotCalled(t, "GetCurrent", mock.Anything, mock.Anything)
}

func TestRunFullAnalysis_DegradesWhenGenerationFails(t *testing.T) {
	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)
	generator := &fakeGenerator{err: providers.ErrGenerationUnavailable}

	documents.On("GetByID", mock.Anything, "doc-1").Return(testDocument(), nil)
	analyses.On("GetCurrent", mock.Anything, "doc-1").Return(nil, apperrors.NewNotFoundError("none"))
	analyses.On("Upsert", mock.Anything, "doc-1", "user-1", mock.Anything).Return(nil)
	analyses.On("ReplaceFoodRecommendations", mock.Anything, "doc-1", mock.Anything).Return(nil)

	svc := newTestService(documents, analyses, nil, generator, nil, nil)
	result, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", false)

	require.NoError(t, err)
	assert.Equal(t, entities.DocumentTypeGeneric, result.DocumentType)
	assert.Equal(t, defaultAssessment().Greeting, result.DoctorAssessment.Greeting)
	assert.Empty(t, result.DrugInteractions)
	assert.Empty(t, result.MedicationInsights)
	assert.Empty(t, result.FoodRecommendations)
	assert.Empty(t, result.SafetyInsights)
	assert.Nil(t, result.CachedAt)
	analyses.AssertExpectations(t)
}

func TestRunFullAnalysis_DocumentNotFound(t *testing.T) {
	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)
	documents.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("document with id missing not found"))
	analyses.On("GetCurrent", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("none"))

	svc := newTestService(documents, analyses, nil, &fakeGenerator{}, nil, nil)
	_, err := svc.RunFullAnalysis(context.Background(), "missing", "user-1", false)

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRunFullAnalysis_ParseFailureIsFatal(t *testing.T) {
	doc := testDocument()
	doc.ExtractedText = "too short"

	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)
	parser := new(MockParser)

	documents.On("GetByID", mock.Anything, "doc-1").Return(doc, nil)
	analyses.On("GetCurrent", mock.Anything, "doc-1").Return(nil, apperrors.NewNotFoundError("none"))
	parser.On("Parse", mock.Anything, doc.FilePath, doc.FileType).Return("", apperrors.NewExternalError("parse failed", nil))

	svc := newTestService(documents, analyses, parser, &fakeGenerator{}, nil, nil)
	_, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", false)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	analyses.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunFullAnalysis_ParsedTextWrittenBack(t *testing.T) {
	doc := testDocument()
	doc.ExtractedText = ""

	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)
	parser := new(MockParser)
	generator := &fakeGenerator{err: providers.ErrGenerationUnavailable}

	documents.On("GetByID", mock.Anything, "doc-1").Return(doc, nil)
	documents.On("UpdateExtractedText", mock.Anything, "doc-1", storedText).Return(nil)
	analyses.On("GetCurrent", mock.Anything, "doc-1").Return(nil, apperrors.NewNotFoundError("none"))
	analyses.On("Upsert", mock.Anything, "doc-1", "user-1", mock.Anything).Return(nil)
	analyses.On("ReplaceFoodRecommendations", mock.Anything, "doc-1", mock.Anything).Return(nil)
	parser.On("Parse", mock.Anything, doc.FilePath, doc.FileType).Return(storedText, nil)

	svc := newTestService(documents, analyses, parser, generator, nil, nil)
	_, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", false)

	require.NoError(t, err)
	documents.AssertCalled(t, "UpdateExtractedText", mock.Anything, "doc-1", storedText)
}

func TestRunFullAnalysis_HappyPath(t *testing.T) {
	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)
	interactions := new(MockInteractionChecker)

	drugs := &fakeDrugLookup{fn: func(name string) (*providers.DrugConcept, error) {
		switch name {
		case "Lisinopril":
			return &providers.DrugConcept{RxCUI: "104375", Name: name}, nil
		case "Ibuprofen":
			return &providers.DrugConcept{RxCUI: "5640", Name: name}, nil
		}
		return nil, nil
	}}

	generator := &fakeGenerator{responses: map[string]string{
		extractionSystemPrompt: `{
			"conditions": [{"name": "Hypertension", "severity": "moderate"}],
			"medications": [
				{"name": "Lisinopril", "dosage": "10mg", "frequency": "daily"},
				{"name": "Ibuprofen", "dosage": "400mg", "frequency": "as needed"}
			],
			"diagnoses": ["Essential hypertension"],
			"symptoms": []
		}`,
		inferenceSystemPrompt: `[{"condition": "High Blood Pressure", "confidence": "high", "inferred_from": ["Lisinopril"], "description": "Blood pressure above the healthy range.", "common_symptoms": ["headache"]}]`,
		assessmentSystemPrompt: `{
			"greeting": "Hello, thanks for sharing this prescription.",
			"diagnosis": "Your document shows treatment for high blood pressure.",
			"treatment_plan": "Lisinopril lowers your blood pressure.",
			"advice": ["Take your medication at the same time each day"],
			"warnings": ["Ibuprofen can reduce the effect of Lisinopril"],
			"follow_up": "See your doctor in 3 months."
		}`,
		medicationInsightSystemPrompt: `{"insights": [{"medication": "Lisinopril", "why_prescribed": "Lowers blood pressure.", "treatment_goal": "Keep blood pressure in range", "side_effects": ["dizziness"], "precautions": ["Rise slowly from sitting"]}]}`,
		foodSystemPrompt:              `[{"category": "Leafy Greens", "foods": ["spinach", "kale"], "benefit": "Supports blood pressure control", "score": 92, "nutrition": {"calories": 35, "protein": 3, "carbs": 6, "fiber": 2.5, "vitamins": ["K", "A"]}}]`,
		safetySystemPrompt:            `[{"question": "Can I drink alcohol?", "answer": "Limit alcohol, it can lower blood pressure too far.", "risk_level": "caution"}]`,
	}}

	documents.On("GetByID", mock.Anything, "doc-1").Return(testDocument(), nil)
	analyses.On("GetCurrent", mock.Anything, "doc-1").Return(nil, apperrors.NewNotFoundError("none"))
	analyses.On("Upsert", mock.Anything, "doc-1", "user-1", mock.Anything).Return(nil)
	analyses.On("UpsertConditions", mock.Anything, mock.Anything).Return(nil)
	analyses.On("ReplaceFoodRecommendations", mock.Anything, "doc-1", mock.Anything).Return(nil)
	interactions.On("CheckInteractions", mock.Anything, []string{"104375", "5640"}).Return([]entities.DrugInteraction{
		{Severity: "Major", Description: "NSAIDs may reduce the antihypertensive effect", Drug1: "Lisinopril", Drug2: "Ibuprofen"},
	}, nil)

	svc := newTestService(documents, analyses, nil, generator, drugs, interactions)
	result, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", false)

	require.NoError(t, err)
	assert.Equal(t, entities.DocumentTypePrescription, result.DocumentType)
	assert.Contains(t, result.Overview, "high-risk drug interaction(s)")

	require.Len(t, result.DrugInteractions, 1)
	assert.Equal(t, entities.SeverityHigh, result.DrugInteractions[0].Severity)

	require.Len(t, result.ExtractedData.Medications, 2)
	assert.Equal(t, "104375", result.ExtractedData.Medications[0].RxCUI)
	assert.Equal(t, "5640", result.ExtractedData.Medications[1].RxCUI)

	require.Len(t, result.MedicationInsights, 1)
	assert.Equal(t, "104375", result.MedicationInsights[0].RxCUI)

	require.Len(t, result.DiagnosedConditions, 1)
	assert.Equal(t, entities.ConfidenceHigh, result.DiagnosedConditions[0].Confidence)

	require.Len(t, result.FoodRecommendations, 1)
	assert.Nil(t, result.CachedAt)

	analyses.AssertExpectations(t)
	interactions.AssertExpectations(t)
}

func TestRunFullAnalysis_EmptyMedicationListSkipsInference(t *testing.T) {
	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)

	generator := &fakeGenerator{responses: map[string]string{
		extractionSystemPrompt: `{
			"conditions": [{"name": "Hypertension", "severity": "moderate"}],
			"medications": [],
			"diagnoses": [],
			"symptoms": []
		}`,
	}}

	documents.On("GetByID", mock.Anything, "doc-1").Return(testDocument(), nil)
	analyses.On("GetCurrent", mock.Anything, "doc-1").Return(nil, apperrors.NewNotFoundError("none"))
	analyses.On("Upsert", mock.Anything, "doc-1", "user-1", mock.Anything).Return(nil)
	analyses.On("UpsertConditions", mock.Anything, mock.Anything).Return(nil)
	analyses.On("ReplaceFoodRecommendations", mock.Anything, "doc-1", mock.Anything).Return(nil)

	svc := newTestService(documents, analyses, nil, generator, nil, nil)
	result, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", false)

	require.NoError(t, err)
	assert.Empty(t, result.DiagnosedConditions)
	assert.NotContains(t, generator.calls, inferenceSystemPrompt)
}

func TestRunFullAnalysis_ConsecutiveRunsProduceSameResult(t *testing.T) {
	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)

	drugs := &fakeDrugLookup{fn: func(name string) (*providers.DrugConcept, error) {
		if name == "Lisinopril" {
			return &providers.DrugConcept{RxCUI: "104375", Name: name}, nil
		}
		return nil, nil
	}}

	generator := &fakeGenerator{responses: map[string]string{
		extractionSystemPrompt: `{
			"conditions": [{"name": "Hypertension", "severity": "moderate"}],
			"medications": [{"name": "Lisinopril", "dosage": "10mg", "frequency": "daily"}],
			"diagnoses": ["Essential hypertension"],
			"symptoms": []
		}`,
		inferenceSystemPrompt: `[{"condition": "High Blood Pressure", "confidence": "high", "inferred_from": ["Lisinopril"], "description": "Blood pressure above the healthy range.", "common_symptoms": ["headache"]}]`,
	}}

	documents.On("GetByID", mock.Anything, "doc-1").Return(testDocument(), nil)
	analyses.On("Upsert", mock.Anything, "doc-1", "user-1", mock.Anything).Return(nil)
	analyses.On("UpsertConditions", mock.Anything, mock.Anything).Return(nil)
	analyses.On("ReplaceFoodRecommendations", mock.Anything, "doc-1", mock.Anything).Return(nil)

	svc := newTestService(documents, analyses, nil, generator, drugs, nil)

	first, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", true)
	require.NoError(t, err)
	second, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, entities.DocumentTypePrescription, second.DocumentType)
	assert.NotNil(t, second.ExtractedData)
	assert.NotNil(t, second.KeyFindings)
	assert.NotNil(t, second.Recommendations)
	assert.NotNil(t, second.FollowUpActions)
	assert.NotNil(t, second.Conditions)
	assert.Nil(t, second.CachedAt)
}

func TestRunFullAnalysis_SingleIdentifiedDrugSkipsInteractionCheck(t *testing.T) {
	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)
	interactions := new(MockInteractionChecker)

	drugs := &fakeDrugLookup{fn: func(name string) (*providers.DrugConcept, error) {
		if name == "Lisinopril" {
			return &providers.DrugConcept{RxCUI: "104375", Name: name}, nil
		}
		return nil, nil
	}}

	generator := &fakeGenerator{responses: map[string]string{
		extractionSystemPrompt: `{
			"conditions": [],
			"medications": [{"name": "Lisinopril"}, {"name": "Obscuridone"}],
			"diagnoses": [],
			"symptoms": []
		}`,
	}}

	documents.On("GetByID", mock.Anything, "doc-1").Return(testDocument(), nil)
	analyses.On("GetCurrent", mock.Anything, "doc-1").Return(nil, apperrors.NewNotFoundError("none"))
	analyses.On("Upsert", mock.Anything, "doc-1", "user-1", mock.Anything).Return(nil)
	analyses.On("ReplaceFoodRecommendations", mock.Anything, "doc-1", mock.Anything).Return(nil)

	svc := newTestService(documents, analyses, nil, generator, drugs, interactions)
	result, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", false)

	require.NoError(t, err)
	assert.Empty(t, result.DrugInteractions)
	interactions.AssertNotCalled(t, "CheckInteractions", mock.Anything, mock.Anything)
}

func TestRunFullAnalysis_PersistenceFailureIsNotFatal(t *testing.T) {
	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)
	generator := &fakeGenerator{err: providers.ErrGenerationUnavailable}

	documents.On("GetByID", mock.Anything, "doc-1").Return(testDocument(), nil)
	analyses.On("GetCurrent", mock.Anything, "doc-1").Return(nil, apperrors.NewNotFoundError("none"))
	analyses.On("Upsert", mock.Anything, "doc-1", "user-1", mock.Anything).Return(apperrors.NewInternalError("db down", nil))
	analyses.On("ReplaceFoodRecommendations", mock.Anything, "doc-1", mock.Anything).Return(apperrors.NewInternalError("db down", nil))

	svc := newTestService(documents, analyses, nil, generator, nil, nil)
	result, err := svc.RunFullAnalysis(context.Background(), "doc-1", "user-1", false)

	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestRunFullAnalysis_FallsBackToDocumentOwner(t *testing.T) {
	documents := new(MockDocumentRepo)
	analyses := new(MockAnalysisRepo)
	generator := &fakeGenerator{err: providers.ErrGenerationUnavailable}

	documents.On("GetByID", mock.Anything, "doc-1").Return(testDocument(), nil)
	analyses.On("GetCurrent", mock.Anything, "doc-1").Return(nil, apperrors.NewNotFoundError("none"))
	analyses.On("Upsert", mock.Anything, "doc-1", "user-1", mock.Anything).Return(nil)
	analyses.On("ReplaceFoodRecommendations", mock.Anything, "doc-1", mock.Anything).Return(nil)

	svc := newTestService(documents, analyses, nil, generator, nil, nil)
	_, err := svc.RunFullAnalysis(context.Background(), "doc-1", "", false)

	require.NoError(t, err)
	analyses.AssertCalled(t, "Upsert", mock.Anything, "doc-1", "user-1", mock.Anything)
}
