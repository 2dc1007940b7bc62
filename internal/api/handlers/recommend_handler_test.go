package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthnet/backend/internal/catalog"
	"github.com/healthnet/backend/internal/ingestion"
	"github.com/healthnet/backend/internal/recommend"
	"github.com/healthnet/backend/internal/severity"
	"github.com/healthnet/backend/internal/vector/milvus"
	"github.com/healthnet/backend/pkg/config"
)

type stubEmbedder struct{}

func (stubEmbedder) GenerateEmbedding(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type stubSearcher struct {
	hits map[string][]milvus.SearchHit
}

func (s *stubSearcher) Search(_ context.Context, collection string, _ []float32, topK int) ([]milvus.SearchHit, error) {
	hits := s.hits[collection]
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func testApp(t *testing.T) *fiber.App {
	t.Helper()

	cat := catalog.Fixture()

	hits := make(map[string][]milvus.SearchHit)
	for _, p := range cat.Patients() {
		hits[ingestion.PatientsCollection] = append(hits[ingestion.PatientsCollection],
			milvus.SearchHit{RefID: int64(p.ID), Text: p.Document()})
	}
	for _, h := range cat.Hospitals() {
		hits[ingestion.HospitalsCollection] = append(hits[ingestion.HospitalsCollection],
			milvus.SearchHit{RefID: int64(h.ID), Text: h.Document()})
	}
	for _, d := range cat.Doctors() {
		hits[ingestion.DoctorsCollection] = append(hits[ingestion.DoctorsCollection],
			milvus.SearchHit{RefID: int64(d.ID), Text: d.Document()})
	}

	engine := recommend.NewEngine(
		cat,
		stubEmbedder{},
		&stubSearcher{hits: hits},
		severity.FrequencyPolicy{},
		recommend.RuleBasedGenerator{},
		config.RetrievalConfig{PatientTopK: 1, HospitalTopK: 50, DoctorTopK: 2},
	)

	app := fiber.New()
	handler := NewRecommendHandler(engine)
	app.Post("/api/v1/recommend", handler.HandleRecommend)

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))

	return resp.StatusCode, parsed
}

func TestHandleRecommend_Success(t *testing.T) {
	app := testApp(t)

	status, body := postJSON(t, app, "/api/v1/recommend", map[string]interface{}{
		"query":         "Evaluate a 30-year-old male with severe abdominal pain and vomiting in Nagpur, recommend a gastroenterologist, assess severity, and suggest a hospital with immediate availability.",
		"user_location": []float64{21.1458, 79.0882},
	})

	require.Equal(t, fiber.StatusOK, status)

	response, ok := body["response"].(map[string]interface{})
	require.True(t, ok, "payload must carry a response object")

	assert.Equal(t, "City Hospital", response["hospital_recommendation"])
	assert.Contains(t, response["recommended_hospitals"], "City Hospital")
	assert.Equal(t, "Navigate to Nagpur, India", response["real_time_navigation"])

	severityMap, ok := response["severity"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "10/10", severityMap["severe abdominal pain"])

	assert.NotEmpty(t, body["context"])
	assert.NotEmpty(t, body["query"])
}

func TestHandleRecommend_MissingFields(t *testing.T) {
	app := testApp(t)

	cases := []map[string]interface{}{
		{"user_location": []float64{21.1458, 79.0882}},
		{"query": "with fever, recommend a physician"},
		{"query": "with fever", "user_location": []float64{21.1458}},
		{},
	}

	for _, payload := range cases {
		status, body := postJSON(t, app, "/api/v1/recommend", payload)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Query and user_location are required", body["error"])
	}
}

func TestHandleRecommend_InvalidBody(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest("POST", "/api/v1/recommend", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
