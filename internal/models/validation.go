package models

// ValidationError is one human-readable scheduling conflict.
type ValidationError struct {
	Message string `json:"message"`
}

// ValidationReport is the outcome of a full conflict scan over the
// local allocation table and the global feed snapshot. It is advisory:
// editing continues, but submission must be refused while HasErrors is
// true, and only against the same FeedVersion the report was built for.
type ValidationReport struct {
	HasErrors       bool                       `json:"has_errors"`
	Errors          []ValidationError          `json:"errors"`
	ConflictingKeys map[AssignmentKey]struct{} `json:"-"`
	FeedVersion     uint64                     `json:"feed_version"`
}

// Keys returns the conflicting assignment keys as a slice for
// serialization.
func (r *ValidationReport) Keys() []AssignmentKey {
	keys := make([]AssignmentKey, 0, len(r.ConflictingKeys))
	for key := range r.ConflictingKeys {
		keys = append(keys, key)
	}
	return keys
}

// EventKind labels the outcome events emitted by the allocation model.
type EventKind string

const (
	EventApplied           EventKind = "APPLIED"
	EventRejected          EventKind = "REJECTED"
	EventValidationChanged EventKind = "VALIDATION_CHANGED"
)

// AllocationEvent is published after each command against a session.
type AllocationEvent struct {
	Kind      EventKind         `json:"kind"`
	SessionID string            `json:"session_id"`
	Command   string            `json:"command"`
	Reason    string            `json:"reason,omitempty"`
	Report    *ValidationReport `json:"report,omitempty"`
}
