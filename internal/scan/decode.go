package scan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Decode and Encode errors. Callers match with errors.Is; the wrapped
// message carries the offending field.
var (
	// ErrMalformed marks reports that are not valid JSON or are
	// missing a required field or carry one with the wrong type.
	ErrMalformed = errors.New("malformed scan report")

	// ErrOutOfRange marks reports whose fields parse but violate
	// their declared domains.
	ErrOutOfRange = errors.New("scan field out of range")
)

// Pointer fields distinguish an absent field from a zero value.
type wireEcho struct {
	Time  *float64 `json:"time"`
	Power *float64 `json:"power"`
}

type wireReport struct {
	ScanAngle     *int        `json:"scanAngle"`
	PulseDuration *int        `json:"pulseDuration"`
	EchoResponses *[]wireEcho `json:"echoResponses"`
}

// Decode parses and validates a single scan report document. It is
// pure: a failed decode has no effect beyond the returned error, so
// callers can discard the message and keep reading.
func Decode(raw []byte) (Report, error) {
	var w wireReport
	if err := json.Unmarshal(raw, &w); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if w.ScanAngle == nil {
		return Report{}, fmt.Errorf("%w: missing scanAngle", ErrMalformed)
	}
	if w.PulseDuration == nil {
		return Report{}, fmt.Errorf("%w: missing pulseDuration", ErrMalformed)
	}
	if w.EchoResponses == nil {
		return Report{}, fmt.Errorf("%w: missing echoResponses", ErrMalformed)
	}

	rep := Report{
		ScanAngle:     *w.ScanAngle,
		PulseDuration: *w.PulseDuration,
		Echoes:        make([]Echo, 0, len(*w.EchoResponses)),
	}
	for i, e := range *w.EchoResponses {
		if e.Time == nil {
			return Report{}, fmt.Errorf("%w: echoResponses[%d] missing time", ErrMalformed, i)
		}
		if e.Power == nil {
			return Report{}, fmt.Errorf("%w: echoResponses[%d] missing power", ErrMalformed, i)
		}
		rep.Echoes = append(rep.Echoes, Echo{Time: *e.Time, Power: *e.Power})
	}

	if err := validate(rep); err != nil {
		return Report{}, err
	}
	return rep, nil
}

// Encode produces the wire document for a report. It rejects reports
// that would not decode back, so Encode followed by Decode is an
// identity on valid reports.
func Encode(rep Report) ([]byte, error) {
	if err := validate(rep); err != nil {
		return nil, err
	}
	if rep.Echoes == nil {
		rep.Echoes = []Echo{}
	}
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return raw, nil
}

func validate(rep Report) error {
	if rep.ScanAngle < 0 || rep.ScanAngle >= 360 {
		return fmt.Errorf("%w: scanAngle %d not in [0,360)", ErrOutOfRange, rep.ScanAngle)
	}
	if rep.PulseDuration < 0 {
		return fmt.Errorf("%w: pulseDuration %d negative", ErrOutOfRange, rep.PulseDuration)
	}
	for i, e := range rep.Echoes {
		if e.Time < 0 {
			return fmt.Errorf("%w: echoResponses[%d] time %g negative", ErrOutOfRange, i, e.Time)
		}
		if e.Power < 0 || e.Power > 1 {
			return fmt.Errorf("%w: echoResponses[%d] power %g not in [0,1]", ErrOutOfRange, i, e.Power)
		}
	}
	return nil
}
