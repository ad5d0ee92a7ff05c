// Package wizard is the session synchronization engine: an in-memory working
// copy of a session's answers, per-field auto-save through a sync agent, the
// step navigation state machine, and the completion gate that seals a session
// for downstream report generation.
package wizard

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/briefkit/wizard/internal/store"
	"github.com/briefkit/wizard/model"
)

// SyncResult reports the outcome of one background persistence call. StepID
// is empty for navigation writes.
type SyncResult struct {
	StepID string
	Seq    int64
	Err    error
}

// Option configures a Controller.
type Option func(*Controller)

// WithSyncNotify registers an observer invoked after every background
// persistence attempt, successful or not. The callback runs on the save
// goroutine and must not block.
func WithSyncNotify(fn func(SyncResult)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithParseFailureNotify registers an observer invoked for every step whose
// stored payload fails to parse during hydration. The callback runs under the
// controller lock and must not block; hosts typically point it at a metrics
// counter.
func WithParseFailureNotify(fn func(stepID string)) Option {
	return func(c *Controller) { c.parseFailed = fn }
}

// WithLogger sets the controller's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller holds the single authoritative in-memory view of a session's
// answers plus the currently displayed step, and is the only component that
// schedules writes through the sync agent.
//
// Public operations are safe for concurrent use; working state is guarded by
// a mutex. Mutations return immediately: persistence runs on a background
// goroutine and its outcome is delivered through the WithSyncNotify observer
// and the per-step last-synced markers.
type Controller struct {
	catalog     model.Catalog
	agent       *SyncAgent
	logger      *zap.Logger
	notify      func(SyncResult)
	parseFailed func(stepID string)

	mu         sync.Mutex
	session    model.Session
	working    map[string]model.FieldMap // step ID -> current field map
	stepIndex  int
	lastSynced map[string]int64 // step ID -> highest acknowledged seq
	hydrated   bool

	inflight sync.WaitGroup
}

// NewController creates a controller for one session. Hydrate must be called
// with a loaded session before any other operation.
func NewController(catalog model.Catalog, st store.SessionStore, sessionID string, opts ...Option) *Controller {
	c := &Controller{
		catalog:    catalog,
		logger:     zap.NewNop(),
		working:    make(map[string]model.FieldMap),
		lastSynced: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.agent = NewSyncAgent(st, sessionID, c.logger)
	return c
}

// Hydrate builds the working state from the session record and its persisted
// step responses. A malformed payload is logged and leaves that step's entry
// empty; failure is isolated per step and never aborts the hydration. Keys
// not declared in the catalog for a step are dropped with a warning so old
// sessions survive catalog evolution. The active step index is the stored
// currentStepIndex clamped into the catalog range.
//
// Hydration is idempotent: the working state is rebuilt from scratch on each
// call, so the same inputs always produce the same result.
func (c *Controller) Hydrate(session model.Session, responses []model.StepResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = session
	c.stepIndex = c.catalog.ClampIndex(session.CurrentStepIndex)

	working := make(map[string]model.FieldMap, c.catalog.Len())
	for _, step := range c.catalog.Steps {
		working[step.ID] = model.FieldMap{}
	}

	for _, resp := range responses {
		fields := c.catalog.FieldSet(resp.StepID)
		if fields == nil {
			c.logger.Warn("stored response for unknown step ignored",
				zap.String("session_id", session.ID),
				zap.String("step_id", resp.StepID),
			)
			continue
		}

		// Seed sequence numbers so new writes supersede stored ones.
		c.agent.Observe(resp.StepID, resp.Seq)
		c.lastSynced[resp.StepID] = resp.Seq

		if len(resp.Data) == 0 {
			continue
		}

		var fm model.FieldMap
		if err := json.Unmarshal(resp.Data, &fm); err != nil {
			perr := model.NewParseFailureError(resp.StepID, err)
			c.logger.Warn("step payload unparseable, starting step empty",
				zap.String("session_id", session.ID),
				zap.String("step_id", resp.StepID),
				zap.Error(perr),
			)
			if c.parseFailed != nil {
				c.parseFailed(resp.StepID)
			}
			continue
		}

		clean := make(model.FieldMap, len(fm))
		for k, v := range fm {
			if !fields[k] {
				c.logger.Warn("dropping field not declared in catalog",
					zap.String("step_id", resp.StepID),
					zap.String("field", k),
				)
				continue
			}
			clean[k] = v
		}
		working[resp.StepID] = clean
	}

	c.working = working
	c.hydrated = true
}

// SetField merges value into the field map for stepID, replacing any prior
// value for that key. The caller supplies the full new value (a toggled list
// arrives whole, never as a partial merge). The mutation is synchronous and
// visible to CurrentStepData before any persistence resolves; the full
// updated field map for the step is then persisted in the background.
func (c *Controller) SetField(ctx context.Context, stepID, fieldKey string, value any) error {
	c.mu.Lock()

	if c.session.IsCompleted() {
		c.mu.Unlock()
		return model.NewSessionCompletedError(c.session.ID)
	}

	fields := c.catalog.FieldSet(stepID)
	if fields == nil {
		c.mu.Unlock()
		return model.NewNotFoundError("step " + stepID + " not found in catalog")
	}
	if !fields[fieldKey] {
		c.mu.Unlock()
		return model.NewValidationError([]model.FieldError{{
			Field:   fieldKey,
			Code:    "UNKNOWN_FIELD",
			Message: "field is not declared for step " + stepID,
		}})
	}

	fm := c.working[stepID]
	if fm == nil {
		fm = model.FieldMap{}
		c.working[stepID] = fm
	}
	fm[fieldKey] = value

	// Snapshot the entire updated map: persistence is whole-step, never a
	// diff, which keeps duplicate deliveries idempotent.
	snapshot := fm.Clone()
	seq := c.agent.NextSeq(stepID)
	c.mu.Unlock()

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		err := c.agent.PersistStep(ctx, stepID, snapshot, seq)
		if err == nil {
			c.markSynced(stepID, seq)
		}
		if c.notify != nil {
			c.notify(SyncResult{StepID: stepID, Seq: seq, Err: err})
		}
	}()

	return nil
}

// CurrentStepData returns a copy of the field map for the active step.
func (c *Controller) CurrentStepData() model.FieldMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.working[c.catalog.Steps[c.stepIndex].ID].Clone()
}

// StepData returns a copy of the field map for the given step, or an empty
// map if the step has no entry.
func (c *Controller) StepData(stepID string) model.FieldMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.working[stepID].Clone()
}

// WorkingState returns a copy of the full working state keyed by step ID.
func (c *Controller) WorkingState() map[string]model.FieldMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]model.FieldMap, len(c.working))
	for id, fm := range c.working {
		out[id] = fm.Clone()
	}
	return out
}

// StepIndex returns the active step index.
func (c *Controller) StepIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepIndex
}

// Session returns the controller's cached session record.
func (c *Controller) Session() model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// LastSyncedSeq returns the highest sequence number the store has
// acknowledged for a step. Comparing it against the last issued seq answers
// "did my last edit actually save".
func (c *Controller) LastSyncedSeq(stepID string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSynced[stepID]
}

// Next advances to the following step, clamping at the last step. Moving past
// the boundary is a no-op, not an error.
func (c *Controller) Next(ctx context.Context) int {
	return c.goTo(ctx, c.StepIndex()+1)
}

// Back moves to the previous step, clamping at the first step.
func (c *Controller) Back(ctx context.Context) int {
	return c.goTo(ctx, c.StepIndex()-1)
}

// GoTo jumps to the given step index, clamped into the catalog range.
func (c *Controller) GoTo(ctx context.Context, index int) int {
	return c.goTo(ctx, index)
}

func (c *Controller) goTo(ctx context.Context, index int) int {
	c.mu.Lock()

	if c.session.IsCompleted() {
		idx := c.stepIndex
		c.mu.Unlock()
		return idx
	}

	clamped := c.catalog.ClampIndex(index)
	if clamped == c.stepIndex {
		c.mu.Unlock()
		return clamped
	}
	c.stepIndex = clamped
	c.session.CurrentStepIndex = clamped
	c.mu.Unlock()

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		err := c.agent.PersistNavigation(ctx, clamped)
		if c.notify != nil {
			c.notify(SyncResult{Seq: int64(clamped), Err: err})
		}
	}()

	return clamped
}

// markSynced records a store acknowledgment. Acks can arrive out of order;
// only the highest seq is kept.
func (c *Controller) markSynced(stepID string, seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq > c.lastSynced[stepID] {
		c.lastSynced[stepID] = seq
	}
}

// Wait blocks until all in-flight background saves have finished. Used by
// hosts on shutdown and by tests.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// seal marks the cached session completed, making the controller read-only.
// Called by the completion gate after the terminal transition commits.
func (c *Controller) seal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Status = model.SessionStatusCompleted
}
