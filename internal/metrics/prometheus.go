package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecommendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthnet_recommend_duration_seconds",
			Help:    "Recommendation processing duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"generator"},
	)

	RecommendTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthnet_recommend_total",
			Help: "Total number of recommendation requests processed",
		},
		[]string{"status"},
	)

	SeverityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "healthnet_severity_score",
			Help:    "Maximum severity score per request",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	HospitalsRanked = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "healthnet_hospitals_ranked_count",
			Help:    "Number of hospitals surviving the ranking filter per request",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	VectorResultsCount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthnet_vector_results_count",
			Help:    "Number of vector search results per collection",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"collection"},
	)

	KGDoctorsFound = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "healthnet_kg_doctors_found_count",
			Help:    "Number of doctors returned by knowledge graph lookups",
			Buckets: []float64{0, 1, 2, 5, 10},
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthnet_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthnet_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthnet_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	UserSatisfaction = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "healthnet_satisfaction_score",
			Help: "User feedback satisfaction score",
		},
		[]string{"helpful"},
	)

	DocumentsIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthnet_documents_indexed_total",
			Help: "Total catalog documents indexed into the vector store",
		},
		[]string{"collection"},
	)
)

func Init() {
	prometheus.MustRegister(RecommendDuration)
	prometheus.MustRegister(RecommendTotal)
	prometheus.MustRegister(SeverityScore)
	prometheus.MustRegister(HospitalsRanked)
	prometheus.MustRegister(VectorResultsCount)
	prometheus.MustRegister(KGDoctorsFound)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(UserSatisfaction)
	prometheus.MustRegister(DocumentsIndexed)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
