package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCoordinate_ValidateRange(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinate
		ok   bool
	}{
		{"origin", Coordinate{0, 0}, true},
		{"corner", Coordinate{-90, 180}, true},
		{"north of pole", Coordinate{90.0001, 0}, false},
		{"past antimeridian", Coordinate{0, -180.5}, false},
		{"far out", Coordinate{200, 500}, false},
		{"nan", Coordinate{math.NaN(), 0}, false},
		{"inf", Coordinate{0, math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.ValidateRange()
			if tt.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestCoordinate_ValidateAllowsOutOfRange(t *testing.T) {
	// the registry accepts any finite value
	if err := (Coordinate{Lat: 200, Lon: 500}).Validate(); err != nil {
		t.Errorf("expected finite coordinate to pass, got %v", err)
	}
}
