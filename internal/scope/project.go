// Package scope maps scan reports onto the square display surface of
// a radar scope.
package scope

import (
	"math"

	"github.com/banshee-data/radarscope/internal/scan"
)

// Position is a point on the display surface, in display units.
// The canvas origin is its top-left corner.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projector converts a report's echo timing into display coordinates.
// Coordinate convention: the sensor sits at the canvas centre
// (SurfaceRadius, SurfaceRadius); bearing 0 points along +X.
type Projector struct {
	// SurfaceRadius is half the side of the square canvas, in
	// display units.
	SurfaceRadius float64

	// MaxRange is the one-way distance that maps to the canvas
	// edge, in the same units the propagation speed is measured in.
	MaxRange float64

	// PropagationSpeed is the signal speed in distance units per
	// second.
	PropagationSpeed float64
}

// Project computes the display position of a report's first echo.
// The first echo is the closest reflection; later echoes do not move
// the marker. ok is false when the report has no echoes.
//
// An echo past MaxRange projects beyond the canvas edge; the range
// fraction is deliberately not clamped.
func (p Projector) Project(rep scan.Report) (pos Position, ok bool) {
	if len(rep.Echoes) == 0 {
		return Position{}, false
	}

	distance := rep.Echoes[0].Time * p.PropagationSpeed / 2.0
	fraction := distance / p.MaxRange
	bearingRad := float64(rep.ScanAngle) * math.Pi / 180.0

	pos.X = fraction*p.SurfaceRadius*math.Cos(bearingRad) + p.SurfaceRadius
	pos.Y = fraction*p.SurfaceRadius*math.Sin(bearingRad) + p.SurfaceRadius
	return pos, true
}
