package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/briefkit/wizard/internal/store"
	"github.com/briefkit/wizard/model"
)

// SyncAgent turns controller mutations into persistence calls against the
// session store. Each call is an independent request: there is no agent-level
// queue, no buffering, and no automatic retry. Failures are wrapped as
// SYNC_FAILED and surfaced to the caller; the unsynced edit stays visible in
// working state until a later save lands.
//
// Every step write carries a per-step monotonically increasing sequence
// number. The store discards stale sequence numbers, so duplicate or
// out-of-order deliveries of the full field map are idempotent.
type SyncAgent struct {
	store     store.SessionStore
	sessionID string
	logger    *zap.Logger

	mu  sync.Mutex
	seq map[string]int64 // step ID -> last issued sequence number
}

// NewSyncAgent creates a sync agent for one session.
func NewSyncAgent(st store.SessionStore, sessionID string, logger *zap.Logger) *SyncAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncAgent{
		store:     st,
		sessionID: sessionID,
		logger:    logger,
		seq:       make(map[string]int64),
	}
}

// Observe records a sequence number seen in a stored response, so that
// sequence numbers issued after hydration are strictly newer than anything
// already persisted.
func (a *SyncAgent) Observe(stepID string, seq int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if seq > a.seq[stepID] {
		a.seq[stepID] = seq
	}
}

// NextSeq issues the next sequence number for a step.
func (a *SyncAgent) NextSeq(stepID string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq[stepID]++
	return a.seq[stepID]
}

// PersistStep serializes the full field map for a step and upserts it. The
// whole map is written, never a diff; combined with the store's replace
// semantics this makes repeated delivery safe.
func (a *SyncAgent) PersistStep(ctx context.Context, stepID string, data model.FieldMap, seq int64) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return model.NewSyncFailedError(stepID, fmt.Errorf("serialize field map: %w", err))
	}

	resp := model.StepResponse{
		SessionID: a.sessionID,
		StepID:    stepID,
		Data:      payload,
		// Saves always mark the step completed regardless of which fields
		// are filled. All fields are optional.
		IsCompleted: true,
		Seq:         seq,
	}

	if err := a.store.UpsertStepResponse(ctx, a.sessionID, resp); err != nil {
		a.logger.Warn("step save failed",
			zap.String("session_id", a.sessionID),
			zap.String("step_id", stepID),
			zap.Int64("seq", seq),
			zap.Error(err),
		)
		return model.NewSyncFailedError(stepID, err)
	}

	a.logger.Debug("step saved",
		zap.String("session_id", a.sessionID),
		zap.String("step_id", stepID),
		zap.Int64("seq", seq),
	)
	return nil
}

// PersistNavigation upserts the session's current step index. Navigation and
// step data are addressed to disjoint keys; a failure here never rolls back a
// field save and vice versa.
func (a *SyncAgent) PersistNavigation(ctx context.Context, index int) error {
	if err := a.store.UpdateSessionNavigation(ctx, a.sessionID, index); err != nil {
		a.logger.Warn("navigation save failed",
			zap.String("session_id", a.sessionID),
			zap.Int("index", index),
			zap.Error(err),
		)
		return model.NewSyncFailedError("", err)
	}
	return nil
}
