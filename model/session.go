package model

import (
	"encoding/json"
	"time"
)

// Session status constants.
const (
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
)

// Session represents one user's questionnaire instance. The store owns the
// authoritative copy; the wizard controller holds a write-through cache of it.
type Session struct {
	ID               string    `json:"id"`
	ProjectName      string    `json:"project_name"`
	ClientName       string    `json:"client_name"`
	CurrentStepIndex int       `json:"current_step_index"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsCompleted reports whether the session has been sealed.
func (s *Session) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}

// StepResponse is the persisted answer set for one (session, step) pair. The
// store overwrites the record on every save; there is at most one live copy
// per pair. Data is kept serialized so a corrupt payload for one step can be
// isolated during hydration instead of failing the whole load.
type StepResponse struct {
	SessionID   string          `json:"session_id"`
	StepID      string          `json:"step_id"`
	Data        json.RawMessage `json:"data"`
	IsCompleted bool            `json:"is_completed"`
	Seq         int64           `json:"seq"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FieldMap is the decoded form of a StepResponse payload: field key to value.
// Values are scalars, booleans, numbers, or ordered string lists; never
// nested objects.
type FieldMap map[string]any

// Clone returns a shallow copy of the field map. List values are copied so
// callers cannot mutate working state through a returned snapshot.
func (f FieldMap) Clone() FieldMap {
	if f == nil {
		return FieldMap{}
	}
	out := make(FieldMap, len(f))
	for k, v := range f {
		if list, ok := v.([]string); ok {
			cp := make([]string, len(list))
			copy(cp, list)
			out[k] = cp
			continue
		}
		if list, ok := v.([]any); ok {
			cp := make([]any, len(list))
			copy(cp, list)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// ReportHandle is the token returned by a successful completion. Downstream
// report generation is retrieved through it; this core never renders reports.
type ReportHandle struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// SessionSnapshot is the load-time view of a session: the session record plus
// every persisted step response, as returned by SessionStore.LoadSession.
type SessionSnapshot struct {
	Session   Session        `json:"session"`
	Responses []StepResponse `json:"responses"`
}
