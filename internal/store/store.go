// Package store defines the durable session store the wizard engine writes
// through, with in-memory and PostgreSQL implementations.
package store

import (
	"context"

	"github.com/briefkit/wizard/model"
)

// SessionStore persists sessions and their per-step responses. Every method
// has request/response semantics; the engine never assumes shared memory with
// the store.
type SessionStore interface {
	// CreateSession persists a new session record.
	CreateSession(ctx context.Context, session model.Session) error

	// LoadSession retrieves the session record and all of its step
	// responses. Returns NOT_FOUND if the session does not exist.
	LoadSession(ctx context.Context, sessionID string) (model.SessionSnapshot, error)

	// UpsertStepResponse creates or fully replaces the response for
	// (sessionID, stepID). Writes carrying a sequence number at or below
	// the stored one are discarded without error, so duplicate or
	// out-of-order deliveries cannot overwrite newer data.
	UpsertStepResponse(ctx context.Context, sessionID string, resp model.StepResponse) error

	// UpdateSessionNavigation persists the session's current step index.
	UpdateSessionNavigation(ctx context.Context, sessionID string, currentStepIndex int) error

	// CompleteSession transitions the session from in_progress to completed
	// and returns the handle for downstream report retrieval. Returns
	// ALREADY_COMPLETED if the session was completed before; the stored
	// state is not altered in that case.
	CompleteSession(ctx context.Context, sessionID string) (model.ReportHandle, error)

	// DeleteSession removes a session and its responses. Operational
	// cleanup only; the wizard engine never calls it.
	DeleteSession(ctx context.Context, sessionID string) error
}
