package ingest

// ConnState describes the current link to the sensor source. The
// manager is the only writer; consumers observe it through events or
// by polling Manager.State.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}
