package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_SamePointIsZero(t *testing.T) {
	points := [][2]float64{
		{79.0882, 21.1458},
		{0, 0},
		{-73.9857, 40.7484},
	}

	for _, p := range points {
		assert.InDelta(t, 0, Haversine(p[0], p[1], p[0], p[1]), 1e-9)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	d1 := Haversine(79.0882, 21.1458, 79.0750, 21.1350)
	d2 := Haversine(79.0750, 21.1350, 79.0882, 21.1458)

	assert.InDelta(t, d1, d2, 1e-9)
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Nagpur to Mumbai is roughly 680 km as the crow flies.
	d := Haversine(79.0882, 21.1458, 72.8777, 19.0760)

	assert.InDelta(t, 680, d, 20)
}

func TestHaversine_MonotonicWithSeparation(t *testing.T) {
	near := Haversine(79.0882, 21.1458, 79.0950, 21.1500)
	mid := Haversine(79.0882, 21.1458, 79.2000, 21.2000)
	far := Haversine(79.0882, 21.1458, 80.0000, 22.0000)

	assert.Less(t, near, mid)
	assert.Less(t, mid, far)
}
