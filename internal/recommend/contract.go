package recommend

import (
	"context"
	"time"

	kgneo4j "github.com/healthnet/backend/internal/kg/neo4j"
	"github.com/healthnet/backend/internal/storage/models"
	"github.com/healthnet/backend/internal/vector/milvus"
)

// Sentinels surfaced in-band instead of errors.
const (
	NoHospitalSentinel = "No suitable hospital found"
	NoNavigation       = "N/A"
	NoPatientContext   = "No patient context found"
	DoctorNotFound     = "Not found in context"
)

// Request is one recommendation query with the caller's coordinates.
type Request struct {
	Query   string
	UserLat float64
	UserLon float64
}

// Context carries the raw retrieved documents echoed back to the caller.
type Context struct {
	PatientContext  string   `json:"patient_context"`
	HospitalContext []string `json:"hospital_context"`
	DoctorContext   []string `json:"doctor_context"`
}

// Recommendation is the structured response payload.
type Recommendation struct {
	PredictedConditions    []string          `json:"predicted_conditions"`
	Severity               map[string]string `json:"severity"`
	RecommendedHospitals   []string          `json:"recommended_hospitals"`
	HospitalRecommendation string            `json:"hospital_recommendation"`
	HospitalJustification  string            `json:"hospital_justification"`
	RealTimeNavigation     string            `json:"real_time_navigation"`
	RecommendedDoctors     map[string]string `json:"recommended_doctors"`
}

// Response is the full payload returned by POST /recommend.
type Response struct {
	Query    string         `json:"query"`
	Context  Context        `json:"context"`
	Response Recommendation `json:"response"`
}

// Embedder encodes free text into a vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Searcher performs nearest-neighbor lookup against one named collection.
type Searcher interface {
	Search(ctx context.Context, collection string, queryVector []float32, topK int) ([]milvus.SearchHit, error)
}

// Cache stores full responses keyed by query+location hash. Optional.
type Cache interface {
	GetRecommendation(ctx context.Context, requestKey string, response interface{}) (bool, error)
	SetRecommendation(ctx context.Context, requestKey string, response interface{}, ttl time.Duration) error
}

// HistoryStore records processed requests for the history and analytics
// endpoints. Optional.
type HistoryStore interface {
	InsertRecommendationRecord(record *models.RecommendationRecord) error
	InsertRecommendedHospital(entry *models.RecommendedHospital) error
}

// DoctorFinder resolves doctors by specialty from the knowledge graph,
// consulted when the retrieved doctor context has no match. Optional.
type DoctorFinder interface {
	FindDoctorsBySpecialty(ctx context.Context, specialty string, limit int) ([]kgneo4j.DoctorMatch, error)
}

// Generator produces the justification text for an assembled recommendation.
type Generator interface {
	Name() string
	Generate(ctx context.Context, query string, retrieved Context, rec *Recommendation) (string, error)
}
