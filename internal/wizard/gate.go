package wizard

import (
	"context"

	"go.uber.org/zap"

	"github.com/briefkit/wizard/internal/store"
	"github.com/briefkit/wizard/model"
)

// CompletionGate transitions a session from in_progress to completed exactly
// once. Completion is always permitted once the catalog has been walked to the
// end, regardless of how many fields were left blank; all fields are optional.
type CompletionGate struct {
	store  store.SessionStore
	logger *zap.Logger
}

// NewCompletionGate creates a completion gate.
func NewCompletionGate(st store.SessionStore, logger *zap.Logger) *CompletionGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionGate{store: st, logger: logger}
}

// Complete seals the session and returns the handle for downstream report
// retrieval. Invoking it on an already-completed session returns an
// ALREADY_COMPLETED signal rather than failing hard: completion must be safe
// to call more than once, since network retries on the completion call are
// expected. The stored state is never altered by a repeat call.
func (g *CompletionGate) Complete(ctx context.Context, session model.Session) (model.ReportHandle, error) {
	if session.IsCompleted() {
		return model.ReportHandle{}, model.NewAlreadyCompletedError(session.ID)
	}

	handle, err := g.store.CompleteSession(ctx, session.ID)
	if err != nil {
		if model.IsCode(err, model.ErrAlreadyCompleted) {
			g.logger.Info("completion retried on sealed session",
				zap.String("session_id", session.ID),
			)
		}
		return model.ReportHandle{}, err
	}

	g.logger.Info("session completed",
		zap.String("session_id", session.ID),
		zap.String("report_handle", handle.ID),
	)
	return handle, nil
}

// CompleteController runs the gate against a controller's session and, on
// success or on an ALREADY_COMPLETED signal, seals the controller so further
// mutations are rejected.
func (g *CompletionGate) CompleteController(ctx context.Context, c *Controller) (model.ReportHandle, error) {
	handle, err := g.Complete(ctx, c.Session())
	if err == nil || model.IsCode(err, model.ErrAlreadyCompleted) {
		c.seal()
	}
	return handle, err
}
