// Package scan defines the radar scan report wire format and its
// validating decoder. A report carries one beam position and the echo
// reflections heard at that bearing.
package scan

// Echo is a single reflection within a scan report.
type Echo struct {
	// Time is the round-trip propagation time in seconds.
	Time float64 `json:"time"`

	// Power is the normalized reflection strength in [0, 1].
	Power float64 `json:"power"`
}

// Report is one decoded scan report. Reports are value types and are
// not modified after decoding.
type Report struct {
	// ScanAngle is the beam bearing in whole degrees, in [0, 360).
	ScanAngle int `json:"scanAngle"`

	// PulseDuration is the transmit pulse length in microseconds.
	PulseDuration int `json:"pulseDuration"`

	// Echoes holds the reflections for this bearing, ordered as
	// received. An empty slice is a valid no-target report.
	Echoes []Echo `json:"echoResponses"`
}
