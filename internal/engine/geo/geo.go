package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// ValidLat reports whether lat is a usable latitude.
func ValidLat(lat float64) bool {
	return !math.IsNaN(lat) && !math.IsInf(lat, 0) && lat >= -90 && lat <= 90
}

// ValidLng reports whether lng is a usable longitude.
func ValidLng(lng float64) bool {
	return !math.IsNaN(lng) && !math.IsInf(lng, 0) && lng >= -180 && lng <= 180
}

// ValidCoordinate reports whether the pair is a usable coordinate.
func ValidCoordinate(lat, lng float64) bool {
	return ValidLat(lat) && ValidLng(lng)
}

// HasPoint reports whether the pair carries an actual position.
// (0, 0) is the unset sentinel, not a real business location.
func HasPoint(lat, lng float64) bool {
	return ValidCoordinate(lat, lng) && !(lat == 0 && lng == 0)
}

// DistanceKm returns the great-circle distance between two points,
// rounded to two decimals.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	if !ValidCoordinate(lat1, lng1) || !ValidCoordinate(lat2, lng2) {
		return 0
	}
	m := orbgeo.Distance(orb.Point{lng1, lat1}, orb.Point{lng2, lat2})
	return math.Round(m/10) / 100
}

// FilterByRadius drops businesses whose own coordinates fall outside
// radiusKm of the center. Businesses without coordinates are kept; the
// extractor cannot always recover a position from the navigation link.
func FilterByRadius(businesses []model.Business, centerLat, centerLng, radiusKm float64) []model.Business {
	if radiusKm <= 0 || !ValidCoordinate(centerLat, centerLng) {
		return businesses
	}
	filtered := businesses[:0:0]
	for _, b := range businesses {
		if !HasPoint(b.Lat, b.Lng) {
			filtered = append(filtered, b)
			continue
		}
		if DistanceKm(centerLat, centerLng, b.Lat, b.Lng) <= radiusKm {
			filtered = append(filtered, b)
		}
	}
	return filtered
}
