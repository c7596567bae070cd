package geospatial

import (
	"math"
	"testing"
)

func TestHaversine_Identity(t *testing.T) {
	if d := Haversine(50.049683, 19.944544, 50.049683, 19.944544); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{50, 20, 51, 20},
		{43.263, -2.935, 40.4168, -3.7038},
		{-33.8688, 151.2093, 51.5074, -0.1278},
		{0, 179.9, 0, -179.9},
	}
	for _, p := range pairs {
		ab := Haversine(p[0], p[1], p[2], p[3])
		ba := Haversine(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-6 {
			t.Errorf("distance not symmetric for %v: %f vs %f", p, ab, ba)
		}
	}
}

func TestHaversine_OneDegreeLatitude(t *testing.T) {
	d := Haversine(50, 20, 51, 20)
	// one degree of arc on a 6371 km sphere
	want := EarthRadiusMeters * math.Pi / 180
	if math.Abs(d-want) > 1 {
		t.Errorf("expected ~%f m, got %f m", want, d)
	}
}

func TestHaversine_LongitudeOnly(t *testing.T) {
	// Moving along a parallel must produce a non-zero distance.
	if d := Haversine(50, 20, 50, 21); d < 70000 || d > 72000 {
		t.Errorf("expected ~71.5 km, got %f m", d)
	}
}

func TestBoundingBox_ContainsCircle(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(43.263, -2.935, 1000)
	if minLat >= 43.263 || maxLat <= 43.263 || minLon >= -2.935 || maxLon <= -2.935 {
		t.Fatal("box does not contain its center")
	}
	if Haversine(43.263, -2.935, maxLat, -2.935) < 999 {
		t.Error("box is tighter than the radius along latitude")
	}
	if Haversine(43.263, -2.935, 43.263, maxLon) < 999 {
		t.Error("box is tighter than the radius along longitude")
	}
}

func TestBoundingBox_Pole(t *testing.T) {
	_, minLon, _, maxLon := BoundingBox(90, 10, 500)
	if minLon != -180 || maxLon != 180 {
		t.Errorf("expected full longitude span at the pole, got %f..%f", minLon, maxLon)
	}
}

func TestBoundingBox_Antimeridian(t *testing.T) {
	_, minLon, _, maxLon := BoundingBox(0, 179.99, 5000)
	if maxLon <= 180 {
		t.Errorf("expected box to extend past 180, got %f", maxLon)
	}
	if minLon >= 179.99 {
		t.Errorf("expected box to extend west of center, got %f", minLon)
	}
}

func TestMetersToLatDelta(t *testing.T) {
	delta := MetersToLatDelta(2000)
	if d := Haversine(50, 20, 50+delta, 20); math.Abs(d-2000) > 1e-6 {
		t.Errorf("expected 2000 m, got %f", d)
	}
}
