package docconv

import "strings"

// Status is the state of a user's combined document.
type Status string

const (
	StatusReady        Status = "ready"
	StatusReadyPartial Status = "ready_partial"
	StatusPendingInput Status = "pending_input"
	StatusComplete     Status = "complete"
	StatusFailed       Status = "failed"
	StatusEmpty        Status = "empty"
)

// ParseStatus normalizes a status string reported by the service.
func ParseStatus(raw string) Status {
	return Status(strings.ToLower(strings.TrimSpace(raw)))
}

// RequiresPolling reports whether the combined document is still being
// assembled, in which case page images cannot be generated yet.
func (s Status) RequiresPolling() bool {
	switch s {
	case StatusReady, StatusReadyPartial, StatusPendingInput:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}
