// Package synthetic produces scan reports without a physical sensor,
// for local development and pipeline testing. A simulated target
// drifts around the origin; the sweep reports an echo whenever the
// beam passes over it.
package synthetic

import (
	"math"
	"math/rand"
	"sync"

	"github.com/banshee-data/radarscope/internal/scan"
)

// GeneratorConfig configures a Generator. Zero fields take defaults.
type GeneratorConfig struct {
	// Step is how many degrees the beam advances per report
	// (default 2).
	Step int

	// PulseDuration is the reported pulse length in µs (default 10).
	PulseDuration int

	// BeamWidth is the angular window, in degrees, within which the
	// target reflects (default 6).
	BeamWidth int

	// TargetRange is the target's nominal one-way distance in
	// display range units (default 120).
	TargetRange float64

	// TargetDrift is how many degrees the target's bearing advances
	// per report (default 0.5).
	TargetDrift float64

	// RangeJitter is the maximum +/- deviation applied to
	// TargetRange per echo (default 5).
	RangeJitter float64

	// PropagationSpeed converts range to round-trip time
	// (default 300000 units/s).
	PropagationSpeed float64

	// Seed fixes the jitter sequence; the same seed yields the same
	// report stream (default 1).
	Seed int64
}

// Generator emits a deterministic synthetic sweep. Safe for use from
// multiple connection goroutines.
type Generator struct {
	mu      sync.Mutex
	cfg     GeneratorConfig
	angle   int
	bearing float64
	rng     *rand.Rand
}

// NewGenerator creates a generator starting at angle 0 with the
// target at bearing 0.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Step <= 0 {
		cfg.Step = 2
	}
	if cfg.PulseDuration <= 0 {
		cfg.PulseDuration = 10
	}
	if cfg.BeamWidth <= 0 {
		cfg.BeamWidth = 6
	}
	if cfg.TargetRange <= 0 {
		cfg.TargetRange = 120
	}
	if cfg.TargetDrift == 0 {
		cfg.TargetDrift = 0.5
	}
	if cfg.RangeJitter < 0 {
		cfg.RangeJitter = 0
	} else if cfg.RangeJitter == 0 {
		cfg.RangeJitter = 5
	}
	if cfg.PropagationSpeed <= 0 {
		cfg.PropagationSpeed = 300000
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}

	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Next advances the sweep one step and returns its report.
func (g *Generator) Next() scan.Report {
	g.mu.Lock()
	defer g.mu.Unlock()

	rep := scan.Report{
		ScanAngle:     g.angle,
		PulseDuration: g.cfg.PulseDuration,
		Echoes:        []scan.Echo{},
	}

	if angularDistance(float64(g.angle), g.bearing) <= float64(g.cfg.BeamWidth)/2 {
		distance := g.cfg.TargetRange + (g.rng.Float64()*2-1)*g.cfg.RangeJitter
		if distance < 0 {
			distance = 0
		}
		rep.Echoes = append(rep.Echoes, scan.Echo{
			Time:  2 * distance / g.cfg.PropagationSpeed,
			Power: 0.4 + 0.5*g.rng.Float64(),
		})
	}

	g.angle = (g.angle + g.cfg.Step) % 360
	g.bearing = math.Mod(g.bearing+g.cfg.TargetDrift+360, 360)
	return rep
}

// angularDistance is the shortest separation between two bearings.
func angularDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
