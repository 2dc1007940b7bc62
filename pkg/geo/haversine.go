package geo

import "math"

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// points given in degrees. Argument order follows (lon, lat) pairs.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	lon1, lat1 = toRadians(lon1), toRadians(lat1)
	lon2, lat2 = toRadians(lon2), toRadians(lat2)

	dLon := lon2 - lon1
	dLat := lat2 - lat1

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
