package models

import "time"

// RecommendationRecord is one processed /recommend request.
type RecommendationRecord struct {
	ID             string
	QueryText      string
	UserLatitude   float64
	UserLongitude  float64
	Conditions     []string
	Specialties    []string
	QueryLocation  string
	MaxSeverity    int
	TopHospital    string
	HospitalsCount int
	CacheHit       bool
	LatencyMS      int
	CreatedAt      time.Time
}

// RecommendedHospital is one ranked entry attached to a recommendation.
type RecommendedHospital struct {
	RecommendationID string
	Rank             int
	HospitalID       int
	HospitalName     string
}

// Feedback is a caller's verdict on a recommendation.
type Feedback struct {
	ID               int64
	RecommendationID string
	Helpful          bool
	Comment          string
	CreatedAt        time.Time
}
