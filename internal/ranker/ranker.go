// Package ranker filters semantic-retrieval hospital candidates down to a
// ranked shortlist. Candidates keep their retrieval order; the filter never
// re-sorts, so the provider's similarity ranking is the ranking.
package ranker

import (
	"strings"

	"github.com/healthnet/backend/internal/catalog"
	"github.com/healthnet/backend/pkg/geo"
)

const (
	// Urgent cases (max severity >= 8) only consider hospitals within a
	// tight radius.
	urgentThresholdKm  = 10.0
	routineThresholdKm = 30.0

	urgentSeverity = 8

	maxResults = 10
)

// DistanceThreshold returns the filter radius in kilometers for a given
// maximum severity.
func DistanceThreshold(maxSeverity int) float64 {
	if maxSeverity >= urgentSeverity {
		return urgentThresholdKm
	}
	return routineThresholdKm
}

// Rank filters candidates by distance, bed availability, and specialty match,
// preserving candidate order, and truncates to the top 10 survivors.
func Rank(candidates []catalog.Hospital, userLat, userLon float64, specialties []string, maxSeverity int) []catalog.Hospital {
	threshold := DistanceThreshold(maxSeverity)

	ranked := make([]catalog.Hospital, 0, maxResults)
	for _, hospital := range candidates {
		if len(ranked) == maxResults {
			break
		}

		distance := geo.Haversine(userLon, userLat, hospital.Longitude, hospital.Latitude)
		if distance > threshold {
			continue
		}
		if hospital.BedsAvailable <= 0 {
			continue
		}
		if !specialtyMatches(hospital.Specialty, specialties) {
			continue
		}

		ranked = append(ranked, hospital)
	}

	return ranked
}

// specialtyMatches reports whether any requested specialty matches the
// hospital's comma-separated specialty field, case-insensitively. Requested
// specialties arrive in practitioner form ("Gastroenterologist") while
// hospital fields carry the discipline ("Gastroenterology"), so both sides
// are stemmed before the substring test, which runs in both directions.
func specialtyMatches(hospitalSpecialty string, requested []string) bool {
	tokens := strings.Split(hospitalSpecialty, ",")
	for _, spec := range requested {
		r := normalizeSpecialty(spec)
		if r == "" {
			continue
		}
		for _, token := range tokens {
			t := normalizeSpecialty(token)
			if t == "" {
				continue
			}
			if strings.Contains(t, r) || strings.Contains(r, t) {
				return true
			}
		}
	}
	return false
}

// normalizeSpecialty lowercases and strips the practitioner/discipline
// suffix: gastroenterologist and gastroenterology both reduce to
// "gastroenterolog".
func normalizeSpecialty(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasSuffix(s, "ist"):
		return strings.TrimSuffix(s, "ist")
	case strings.HasSuffix(s, "ian"):
		return strings.TrimSuffix(s, "ian")
	case strings.HasSuffix(s, "y"):
		return strings.TrimSuffix(s, "y")
	}
	return s
}
