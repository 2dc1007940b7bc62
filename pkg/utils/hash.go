package utils

import (
	"crypto/sha256"
	"fmt"
)

func HashString(input string) string {
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// RequestKey derives a stable cache key for a query and user location.
func RequestKey(query string, lat, lon float64) string {
	return HashString(fmt.Sprintf("%s|%.6f|%.6f", query, lat, lon))
}
