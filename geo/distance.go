package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

// Coordinate is a WGS84 latitude / longitude pair, in degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports if the coordinate is within the latitude / longitude bounds
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}

	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// DistanceKm returns the great-circle (haversine) distance between
// the two coordinates, on a spherical Earth
func DistanceKm(from, to Coordinate) float64 {
	if from == to {
		return 0
	}

	var (
		lat1 = toRadians(from.Lat)
		lat2 = toRadians(to.Lat)
		dLat = lat2 - lat1
		dLng = toRadians(to.Lng - from.Lng)
	)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	// Rounding can push h marginally outside [0, 1]
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
