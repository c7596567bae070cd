package geospatial

import "math"

// EarthRadiusMeters is the mean Earth radius used for all distance math.
const EarthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
// The box is a superset of the circle and is meant as a coarse prefilter only.
// Longitudes are not wrapped: minLon may be below -180 and maxLon above 180
// when the circle crosses the antimeridian.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := MetersToLatDelta(radiusMeters)
	minLat, maxLat = lat-latDelta, lat+latDelta
	if minLat <= -90 || maxLat >= 90 {
		// the circle covers a pole, so every longitude is within reach
		return math.Max(minLat, -90), -180, math.Min(maxLat, 90), 180
	}

	ratio := math.Sin(radiusMeters/EarthRadiusMeters) / math.Cos(toRad(lat))
	if ratio >= 1 || radiusMeters/EarthRadiusMeters >= math.Pi/2 {
		return minLat, -180, maxLat, 180
	}
	lonDelta := math.Asin(ratio) * 180 / math.Pi

	return minLat, lon - lonDelta, maxLat, lon + lonDelta
}

// MetersToLatDelta converts a north-south distance to degrees of latitude.
func MetersToLatDelta(meters float64) float64 {
	return meters / (toRad(1) * EarthRadiusMeters)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
