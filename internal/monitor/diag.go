package monitor

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Diagnostic is pushed to every frame stream client, outside the frame
// throttle.
type Diagnostic struct {
	Type     string         `json:"type"`
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Report queues d for broadcast. Like Publish it drops rather than blocks.
func (h *Hub) Report(d Diagnostic) {
	d.Type = "diag"
	select {
	case h.queue <- d:
	default:
	}
}
