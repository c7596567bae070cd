package domain

import (
	"fmt"
	"math"
)

// Coordinate is a geographic point in degrees (WGS 84, no datum conversion).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether both components are finite.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("%w: coordinate (%v, %v) is not finite", ErrInvalidArgument, c.Lat, c.Lon)
	}
	return nil
}

// InRange reports whether the coordinate lies within [-90,90] x [-180,180].
func (c Coordinate) InRange() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// ValidateRange checks finiteness and the WGS 84 bounds. The registry only
// needs finite values; external inputs must also be in range.
func (c Coordinate) ValidateRange() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.InRange() {
		return fmt.Errorf("%w: coordinate (%v, %v) is outside [-90,90] x [-180,180]", ErrInvalidArgument, c.Lat, c.Lon)
	}
	return nil
}

// Viewport is a circular query region. Radius is in meters.
type Viewport struct {
	Center Coordinate `json:"center"`
	Radius float64    `json:"radius"`
}

// Validate checks the center and requires a positive, finite radius.
func (v Viewport) Validate() error {
	if err := v.Center.Validate(); err != nil {
		return err
	}
	if math.IsNaN(v.Radius) || math.IsInf(v.Radius, 0) || v.Radius <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidArgument, v.Radius)
	}
	return nil
}
