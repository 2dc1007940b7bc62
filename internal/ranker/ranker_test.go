package ranker

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthnet/backend/internal/catalog"
)

// User location in central Nagpur, co-located with City Hospital.
const (
	userLat = 21.1458
	userLon = 79.0882
)

func fixtureHospitals() []catalog.Hospital {
	return catalog.Fixture().Hospitals()
}

func TestDistanceThreshold(t *testing.T) {
	assert.Equal(t, 30.0, DistanceThreshold(1))
	assert.Equal(t, 30.0, DistanceThreshold(7))
	assert.Equal(t, 10.0, DistanceThreshold(8))
	assert.Equal(t, 10.0, DistanceThreshold(10))
}

func TestRank_FixtureGastroenterologist(t *testing.T) {
	ranked := Rank(fixtureHospitals(), userLat, userLon, []string{"Gastroenterologist"}, 10)

	require.Len(t, ranked, 2)
	assert.Equal(t, "City Hospital", ranked[0].Name)
	assert.Equal(t, "General Medical Center", ranked[1].Name)
}

func TestRank_ExcludesZeroBeds(t *testing.T) {
	hospitals := []catalog.Hospital{
		{ID: 1, Name: "Full House", Specialty: "General", BedsAvailable: 0, Latitude: userLat, Longitude: userLon},
		{ID: 2, Name: "Open Ward", Specialty: "General", BedsAvailable: 3, Latitude: userLat, Longitude: userLon},
	}

	ranked := Rank(hospitals, userLat, userLon, []string{"General"}, 5)

	require.Len(t, ranked, 1)
	assert.Equal(t, "Open Ward", ranked[0].Name)
}

func TestRank_ExcludesSpecialtyMismatch(t *testing.T) {
	hospitals := []catalog.Hospital{
		{ID: 1, Name: "Eye Center", Specialty: "Ophthalmology", BedsAvailable: 10, Latitude: userLat, Longitude: userLon},
	}

	ranked := Rank(hospitals, userLat, userLon, []string{"Cardiologist"}, 5)

	assert.Empty(t, ranked)
}

func TestRank_UrgentSeverityTightensRadius(t *testing.T) {
	// Roughly 18 km north of the user: inside 30 km, outside 10 km.
	far := catalog.Hospital{ID: 1, Name: "Outskirts Hospital", Specialty: "General", BedsAvailable: 5, Latitude: userLat + 0.16, Longitude: userLon}

	assert.Len(t, Rank([]catalog.Hospital{far}, userLat, userLon, []string{"General"}, 7), 1)
	assert.Empty(t, Rank([]catalog.Hospital{far}, userLat, userLon, []string{"General"}, 8))
}

func TestRank_PreservesRetrievalOrder(t *testing.T) {
	var hospitals []catalog.Hospital
	for i := 0; i < 5; i++ {
		hospitals = append(hospitals, catalog.Hospital{
			ID:            i + 1,
			Name:          fmt.Sprintf("Hospital %d", i+1),
			Specialty:     "General",
			BedsAvailable: 10,
			// Increasing distance in reverse of a distance sort; order
			// must still follow the input.
			Latitude:  userLat + 0.01*float64(5-i),
			Longitude: userLon,
		})
	}

	ranked := Rank(hospitals, userLat, userLon, []string{"General"}, 5)

	require.Len(t, ranked, 5)
	for i, h := range ranked {
		assert.Equal(t, i+1, h.ID)
	}
}

func TestRank_TruncatesToTen(t *testing.T) {
	var hospitals []catalog.Hospital
	for i := 0; i < 25; i++ {
		hospitals = append(hospitals, catalog.Hospital{
			ID:            i + 1,
			Name:          fmt.Sprintf("Hospital %d", i+1),
			Specialty:     "General",
			BedsAvailable: 10,
			Latitude:      userLat,
			Longitude:     userLon,
		})
	}

	ranked := Rank(hospitals, userLat, userLon, []string{"General"}, 5)

	require.Len(t, ranked, 10)
	assert.Equal(t, 1, ranked[0].ID)
	assert.Equal(t, 10, ranked[9].ID)
}

func TestSpecialtyMatches_PractitionerVsDiscipline(t *testing.T) {
	cases := []struct {
		field     string
		requested string
		want      bool
	}{
		{"Gastroenterology, Cardiology", "Gastroenterologist", true},
		{"Gastroenterology", "Cardiologist", false},
		{"General", "General Physician", true},
		{"General", "General", true},
		{"Cardiology", "cardiologist", true},
		{"Ophthalmology", "Dermatologist", false},
	}

	for _, tc := range cases {
		got := specialtyMatches(tc.field, []string{tc.requested})
		assert.Equal(t, tc.want, got, "field=%q requested=%q", tc.field, tc.requested)
	}
}
