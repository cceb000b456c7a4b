package synthetic

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/radarscope/internal/scan"
)

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(GeneratorConfig{Seed: 42})
	b := NewGenerator(GeneratorConfig{Seed: 42})

	for i := 0; i < 500; i++ {
		if diff := cmp.Diff(a.Next(), b.Next()); diff != "" {
			t.Fatalf("report %d diverged (-a +b):\n%s", i, diff)
		}
	}
}

func TestGenerator_ReportsAlwaysValid(t *testing.T) {
	g := NewGenerator(GeneratorConfig{Seed: 7})

	sawEcho := false
	for i := 0; i < 1000; i++ {
		rep := g.Next()
		if rep.ScanAngle < 0 || rep.ScanAngle >= 360 {
			t.Fatalf("report %d: angle %d outside [0,360)", i, rep.ScanAngle)
		}
		if len(rep.Echoes) > 0 {
			sawEcho = true
		}

		// Every generated report must survive the wire format.
		payload, err := scan.Encode(rep)
		if err != nil {
			t.Fatalf("report %d failed to encode: %v", i, err)
		}
		got, err := scan.Decode(payload)
		if err != nil {
			t.Fatalf("report %d failed to decode: %v", i, err)
		}
		if diff := cmp.Diff(rep, got); diff != "" {
			t.Fatalf("report %d round trip mismatch (-want +got):\n%s", i, diff)
		}
	}

	if !sawEcho {
		t.Error("beam never passed over the target in 1000 sweeps")
	}
}

func TestGenerator_EchoOnlyInsideBeam(t *testing.T) {
	g := NewGenerator(GeneratorConfig{Seed: 3, BeamWidth: 6, Step: 1, TargetDrift: 0.25})

	// Track the target bearing externally: it starts at 0 and
	// advances 0.25 degrees per report.
	bearing := 0.0
	for i := 0; i < 720; i++ {
		rep := g.Next()
		inBeam := angularDistance(float64(rep.ScanAngle), bearing) <= 3
		if inBeam && len(rep.Echoes) == 0 {
			t.Errorf("report %d: beam over target at %d but no echo", i, rep.ScanAngle)
		}
		if !inBeam && len(rep.Echoes) != 0 {
			t.Errorf("report %d: echo at %d with target at %.2f", i, rep.ScanAngle, bearing)
		}
		bearing += 0.25
	}
}

func TestAngularDistance(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{10, 350, 20},
		{350, 10, 20},
		{0, 180, 180},
		{90, 270, 180},
		{359, 1, 2},
	}
	for _, tt := range tests {
		if got := angularDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("angularDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
