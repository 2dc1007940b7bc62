package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthnet/backend/internal/catalog"
	"github.com/healthnet/backend/internal/ingestion"
	"github.com/healthnet/backend/internal/intent"
	"github.com/healthnet/backend/internal/metrics"
	"github.com/healthnet/backend/internal/ranker"
	"github.com/healthnet/backend/internal/severity"
	"github.com/healthnet/backend/internal/storage/models"
	"github.com/healthnet/backend/pkg/config"
	"github.com/healthnet/backend/pkg/logger"
	"github.com/healthnet/backend/pkg/utils"
)

// Engine runs the full recommendation pipeline: retrieve, extract intent,
// score severity, rank hospitals, resolve doctors, and assemble the payload.
type Engine struct {
	cat       *catalog.Catalog
	embedder  Embedder
	searcher  Searcher
	policy    severity.Policy
	generator Generator
	retrieval config.RetrievalConfig

	cache    Cache
	cacheTTL time.Duration
	history  HistoryStore
	doctors  DoctorFinder
}

func NewEngine(cat *catalog.Catalog, embedder Embedder, searcher Searcher, policy severity.Policy, generator Generator, retrieval config.RetrievalConfig) *Engine {
	return &Engine{
		cat:       cat,
		embedder:  embedder,
		searcher:  searcher,
		policy:    policy,
		generator: generator,
		retrieval: retrieval,
	}
}

// WithCache enables response caching.
func (e *Engine) WithCache(cache Cache, ttl time.Duration) *Engine {
	e.cache = cache
	e.cacheTTL = ttl
	return e
}

// WithHistory enables request recording.
func (e *Engine) WithHistory(history HistoryStore) *Engine {
	e.history = history
	return e
}

// WithDoctorFinder enables the knowledge-graph fallback for doctor lookups.
func (e *Engine) WithDoctorFinder(doctors DoctorFinder) *Engine {
	e.doctors = doctors
	return e
}

// Recommend processes one request end to end.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()
	requestID := uuid.New().String()
	requestKey := utils.RequestKey(req.Query, req.UserLat, req.UserLon)

	logger.Info("Processing recommendation",
		zap.String("request_id", requestID),
		zap.String("query", req.Query),
	)

	if e.cache != nil {
		var cached Response
		hit, err := e.cache.GetRecommendation(ctx, requestKey, &cached)
		if err != nil {
			logger.Warn("Cache lookup failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("recommendation").Inc()
			metrics.RecommendTotal.WithLabelValues("cache_hit").Inc()
			e.record(requestID, req, &cached, true, int(time.Since(startTime).Milliseconds()))
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("recommendation").Inc()
	}

	retrieved, candidates, patient, err := e.retrieve(ctx, req.Query)
	if err != nil {
		metrics.RecommendTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	parsed := intent.Extract(req.Query)
	logger.Debug("Intent extracted",
		zap.Strings("conditions", parsed.Conditions),
		zap.Strings("specialties", parsed.Specialties),
		zap.String("location", parsed.Location),
	)

	scores, maxSeverity := severity.ScoreAll(e.policy, parsed.Conditions, e.cat.Appointments(), patient)
	metrics.SeverityScore.Observe(float64(maxSeverity))

	ranked := ranker.Rank(candidates, req.UserLat, req.UserLon, parsed.Specialties, maxSeverity)
	metrics.HospitalsRanked.Observe(float64(len(ranked)))

	rec := Recommendation{
		PredictedConditions:    parsed.Conditions,
		Severity:               scores,
		RecommendedHospitals:   hospitalNames(ranked),
		HospitalRecommendation: NoHospitalSentinel,
		RealTimeNavigation:     NoNavigation,
		RecommendedDoctors:     e.resolveDoctors(ctx, parsed.Specialties, retrieved.DoctorContext),
	}
	if len(ranked) > 0 {
		rec.HospitalRecommendation = ranked[0].Name
		rec.RealTimeNavigation = fmt.Sprintf("Navigate to %s", ranked[0].Location)
	}

	justification, err := e.generator.Generate(ctx, req.Query, retrieved, &rec)
	if err != nil {
		metrics.RecommendTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to generate justification: %w", err)
	}
	rec.HospitalJustification = justification

	response := &Response{
		Query:    req.Query,
		Context:  retrieved,
		Response: rec,
	}

	latency := int(time.Since(startTime).Milliseconds())
	metrics.RecommendDuration.WithLabelValues(e.generator.Name()).Observe(time.Since(startTime).Seconds())
	metrics.RecommendTotal.WithLabelValues("success").Inc()

	e.record(requestID, req, response, false, latency)
	e.recordHospitals(requestID, ranked)

	if e.cache != nil {
		if err := e.cache.SetRecommendation(ctx, requestKey, response, e.cacheTTL); err != nil {
			logger.Warn("Failed to cache recommendation", zap.Error(err))
		}
	}

	logger.Info("Recommendation processed",
		zap.String("request_id", requestID),
		zap.String("top_hospital", rec.HospitalRecommendation),
		zap.Int("hospitals", len(ranked)),
		zap.Int("latency_ms", latency),
	)

	return response, nil
}

// retrieve runs the three collection searches and resolves hospital hits back
// to catalog rows, preserving similarity order.
func (e *Engine) retrieve(ctx context.Context, query string) (Context, []catalog.Hospital, *catalog.Patient, error) {
	embedding, err := e.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return Context{}, nil, nil, fmt.Errorf("failed to embed query: %w", err)
	}

	patientHits, err := e.searcher.Search(ctx, ingestion.PatientsCollection, embedding, e.retrieval.PatientTopK)
	if err != nil {
		return Context{}, nil, nil, fmt.Errorf("patient search failed: %w", err)
	}
	hospitalHits, err := e.searcher.Search(ctx, ingestion.HospitalsCollection, embedding, e.retrieval.HospitalTopK)
	if err != nil {
		return Context{}, nil, nil, fmt.Errorf("hospital search failed: %w", err)
	}
	doctorHits, err := e.searcher.Search(ctx, ingestion.DoctorsCollection, embedding, e.retrieval.DoctorTopK)
	if err != nil {
		return Context{}, nil, nil, fmt.Errorf("doctor search failed: %w", err)
	}

	metrics.VectorResultsCount.WithLabelValues(ingestion.PatientsCollection).Observe(float64(len(patientHits)))
	metrics.VectorResultsCount.WithLabelValues(ingestion.HospitalsCollection).Observe(float64(len(hospitalHits)))
	metrics.VectorResultsCount.WithLabelValues(ingestion.DoctorsCollection).Observe(float64(len(doctorHits)))

	retrieved := Context{
		PatientContext:  NoPatientContext,
		HospitalContext: make([]string, 0, len(hospitalHits)),
		DoctorContext:   make([]string, 0, len(doctorHits)),
	}

	var patient *catalog.Patient
	if len(patientHits) > 0 {
		retrieved.PatientContext = patientHits[0].Text
		if p, ok := e.cat.PatientByID(int(patientHits[0].RefID)); ok {
			patient = &p
		}
	}

	candidates := make([]catalog.Hospital, 0, len(hospitalHits))
	for _, hit := range hospitalHits {
		retrieved.HospitalContext = append(retrieved.HospitalContext, hit.Text)
		if h, ok := e.cat.HospitalByID(int(hit.RefID)); ok {
			candidates = append(candidates, h)
		} else {
			logger.Warn("Hospital hit has no catalog row", zap.Int64("ref_id", hit.RefID))
		}
	}

	for _, hit := range doctorHits {
		retrieved.DoctorContext = append(retrieved.DoctorContext, hit.Text)
	}

	return retrieved, candidates, patient, nil
}

// resolveDoctors maps each requested specialty to a doctor name. The
// retrieved doctor context is scanned first; when it has no match and a
// knowledge graph is wired, the graph is consulted before giving up.
func (e *Engine) resolveDoctors(ctx context.Context, specialties, doctorContext []string) map[string]string {
	doctors := make(map[string]string, len(specialties))

	for _, spec := range specialties {
		doctors[spec] = DoctorNotFound

		lowered := strings.ToLower(spec)
		for _, doc := range doctorContext {
			if strings.Contains(strings.ToLower(doc), lowered) {
				if name := doctorNameFromDocument(doc); name != "" {
					doctors[spec] = name
				}
				break
			}
		}

		if doctors[spec] == DoctorNotFound && e.doctors != nil {
			matches, err := e.doctors.FindDoctorsBySpecialty(ctx, spec, 1)
			if err != nil {
				logger.Warn("KG doctor lookup failed", zap.String("specialty", spec), zap.Error(err))
				continue
			}
			metrics.KGDoctorsFound.Observe(float64(len(matches)))
			if len(matches) > 0 {
				doctors[spec] = matches[0].DoctorName
			}
		}
	}

	return doctors
}

func (e *Engine) record(requestID string, req Request, response *Response, cacheHit bool, latencyMS int) {
	if e.history == nil {
		return
	}

	parsed := intent.Extract(req.Query)
	rec := response.Response

	record := &models.RecommendationRecord{
		ID:             requestID,
		QueryText:      req.Query,
		UserLatitude:   req.UserLat,
		UserLongitude:  req.UserLon,
		Conditions:     rec.PredictedConditions,
		Specialties:    parsed.Specialties,
		QueryLocation:  parsed.Location,
		MaxSeverity:    maxSeverityFrom(rec.Severity),
		TopHospital:    rec.HospitalRecommendation,
		HospitalsCount: len(rec.RecommendedHospitals),
		CacheHit:       cacheHit,
		LatencyMS:      latencyMS,
		CreatedAt:      time.Now(),
	}

	if err := e.history.InsertRecommendationRecord(record); err != nil {
		logger.Warn("Failed to record recommendation", zap.Error(err))
	}
}

func (e *Engine) recordHospitals(requestID string, ranked []catalog.Hospital) {
	if e.history == nil {
		return
	}

	for i, h := range ranked {
		entry := &models.RecommendedHospital{
			RecommendationID: requestID,
			Rank:             i + 1,
			HospitalID:       h.ID,
			HospitalName:     h.Name,
		}
		if err := e.history.InsertRecommendedHospital(entry); err != nil {
			logger.Warn("Failed to record ranked hospital", zap.Error(err))
		}
	}
}

func hospitalNames(hospitals []catalog.Hospital) []string {
	names := make([]string, len(hospitals))
	for i, h := range hospitals {
		names[i] = h.Name
	}
	return names
}

// doctorNameFromDocument pulls the name field out of a rendered doctor
// document ("Doctor ID: 201, Name: Dr. Alice, ...").
func doctorNameFromDocument(doc string) string {
	const marker = "Name: "
	start := strings.Index(doc, marker)
	if start == -1 {
		return ""
	}
	rest := doc[start+len(marker):]
	if end := strings.Index(rest, ","); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func maxSeverityFrom(scores map[string]string) int {
	maxScore := 0
	for _, formatted := range scores {
		var n int
		if _, err := fmt.Sscanf(formatted, "%d/10", &n); err == nil && n > maxScore {
			maxScore = n
		}
	}
	return maxScore
}
