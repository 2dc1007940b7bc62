package recommend

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthnet/backend/internal/catalog"
	"github.com/healthnet/backend/internal/ingestion"
	"github.com/healthnet/backend/internal/severity"
	"github.com/healthnet/backend/internal/storage/models"
	"github.com/healthnet/backend/internal/vector/milvus"
	"github.com/healthnet/backend/pkg/config"
)

const canonicalQuery = "Evaluate a 30-year-old male with severe abdominal pain and vomiting in Nagpur, recommend a gastroenterologist, assess severity, and suggest a hospital with immediate availability."

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeSearcher struct {
	hits map[string][]milvus.SearchHit
}

func (f *fakeSearcher) Search(_ context.Context, collection string, _ []float32, topK int) ([]milvus.SearchHit, error) {
	hits := f.hits[collection]
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

type fakeHistory struct {
	records   []models.RecommendationRecord
	hospitals []models.RecommendedHospital
}

func (f *fakeHistory) InsertRecommendationRecord(record *models.RecommendationRecord) error {
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeHistory) InsertRecommendedHospital(entry *models.RecommendedHospital) error {
	f.hospitals = append(f.hospitals, *entry)
	return nil
}

type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) GetRecommendation(_ context.Context, key string, response interface{}) (bool, error) {
	data, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, response)
}

func (f *fakeCache) SetRecommendation(_ context.Context, key string, response interface{}, _ time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	f.entries[key] = data
	return nil
}

func fixtureSearcher(cat *catalog.Catalog) *fakeSearcher {
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
	return &fakeSearcher{hits: hits}
}

func fixtureEngine(cat *catalog.Catalog) *Engine {
	return NewEngine(
		cat,
		&fakeEmbedder{},
		fixtureSearcher(cat),
		severity.FrequencyPolicy{},
		RuleBasedGenerator{},
		config.RetrievalConfig{PatientTopK: 1, HospitalTopK: 50, DoctorTopK: 2},
	)
}

func TestRecommend_FixtureEndToEnd(t *testing.T) {
	cat := catalog.Fixture()
	engine := fixtureEngine(cat)

	resp, err := engine.Recommend(context.Background(), Request{
		Query:   canonicalQuery,
		UserLat: 21.1458,
		UserLon: 79.0882,
	})
	require.NoError(t, err)

	assert.Equal(t, canonicalQuery, resp.Query)
	assert.Contains(t, resp.Context.PatientContext, "Patient ID:")
	assert.Len(t, resp.Context.DoctorContext, 2)

	rec := resp.Response
	assert.Equal(t, []string{"severe abdominal pain", "vomiting"}, rec.PredictedConditions)
	assert.Equal(t, map[string]string{
		"severe abdominal pain": "10/10",
		"vomiting":              "10/10",
	}, rec.Severity)
	assert.Contains(t, rec.RecommendedHospitals, "City Hospital")
	assert.Equal(t, "City Hospital", rec.HospitalRecommendation)
	assert.Equal(t, "Navigate to Nagpur, India", rec.RealTimeNavigation)
	assert.Equal(t, "Recommended based on proximity and appointment history for severe abdominal pain, vomiting", rec.HospitalJustification)
	assert.Equal(t, map[string]string{"Gastroenterologist": "Dr. Alice"}, rec.RecommendedDoctors)
}

func TestRecommend_NoSurvivorsUsesSentinels(t *testing.T) {
	cat := catalog.Fixture()
	engine := fixtureEngine(cat)

	// No hospital covers dermatology, so the filter removes everything.
	resp, err := engine.Recommend(context.Background(), Request{
		Query:   "Evaluate a patient with a skin rash, recommend a dermatologist",
		UserLat: 21.1458,
		UserLon: 79.0882,
	})
	require.NoError(t, err)

	rec := resp.Response
	assert.Empty(t, rec.RecommendedHospitals)
	assert.Equal(t, NoHospitalSentinel, rec.HospitalRecommendation)
	assert.Equal(t, NoNavigation, rec.RealTimeNavigation)
	assert.Equal(t, map[string]string{"Dermatologist": DoctorNotFound}, rec.RecommendedDoctors)
}

func TestRecommend_UnparsedQueryFallsBackToDefaults(t *testing.T) {
	cat := catalog.Fixture()
	engine := fixtureEngine(cat)

	resp, err := engine.Recommend(context.Background(), Request{
		Query:   "hospital please",
		UserLat: 21.1458,
		UserLon: 79.0882,
	})
	require.NoError(t, err)

	rec := resp.Response
	assert.Equal(t, []string{"Unknown condition"}, rec.PredictedConditions)
	assert.Equal(t, map[string]string{"Unknown condition": "5/10"}, rec.Severity)
	// Only Health Clinic carries the default "General" specialty.
	assert.Equal(t, []string{"Health Clinic"}, rec.RecommendedHospitals)
}

func TestRecommend_RecordsHistory(t *testing.T) {
	cat := catalog.Fixture()
	history := &fakeHistory{}
	engine := fixtureEngine(cat).WithHistory(history)

	_, err := engine.Recommend(context.Background(), Request{
		Query:   canonicalQuery,
		UserLat: 21.1458,
		UserLon: 79.0882,
	})
	require.NoError(t, err)

	require.Len(t, history.records, 1)
	record := history.records[0]
	assert.Equal(t, canonicalQuery, record.QueryText)
	assert.Equal(t, "City Hospital", record.TopHospital)
	assert.Equal(t, 10, record.MaxSeverity)
	assert.False(t, record.CacheHit)

	require.NotEmpty(t, history.hospitals)
	assert.Equal(t, 1, history.hospitals[0].Rank)
	assert.Equal(t, "City Hospital", history.hospitals[0].HospitalName)
}

func TestRecommend_SecondCallHitsCache(t *testing.T) {
	cat := catalog.Fixture()
	embedder := &fakeEmbedder{}
	cache := newFakeCache()
	engine := NewEngine(
		cat,
		embedder,
		fixtureSearcher(cat),
		severity.FrequencyPolicy{},
		RuleBasedGenerator{},
		config.RetrievalConfig{PatientTopK: 1, HospitalTopK: 50, DoctorTopK: 2},
	).WithCache(cache, time.Minute)

	req := Request{Query: canonicalQuery, UserLat: 21.1458, UserLon: 79.0882}

	first, err := engine.Recommend(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, embedder.calls)

	second, err := engine.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.calls, "cache hit must not re-embed")
	assert.Equal(t, first.Response, second.Response)
}

func TestDoctorNameFromDocument(t *testing.T) {
	doc := catalog.Doctor{ID: 201, Name: "Dr. Alice", Specialization: "Gastroenterologist", HospitalID: 101}.Document()
	assert.Equal(t, "Dr. Alice", doctorNameFromDocument(doc))

	assert.Equal(t, "", doctorNameFromDocument("no fields here"))
}
