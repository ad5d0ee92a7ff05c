package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/briefkit/wizard/model"
)

// MemoryStore is an in-memory SessionStore for tests and the "memory" driver.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]model.Session                 // key: session ID
	responses map[string]map[string]model.StepResponse // key: session ID -> step ID
	reports   map[string]model.ReportHandle            // key: session ID
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]model.Session),
		responses: make(map[string]map[string]model.StepResponse),
		reports:   make(map[string]model.ReportHandle),
	}
}

// CreateSession persists a new session record.
func (s *MemoryStore) CreateSession(_ context.Context, session model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return model.NewConflictError(
			fmt.Sprintf("session %q already exists", session.ID),
		)
	}

	s.sessions[session.ID] = session
	s.responses[session.ID] = make(map[string]model.StepResponse)
	return nil
}

// LoadSession retrieves the session record and all of its step responses.
func (s *MemoryStore) LoadSession(_ context.Context, sessionID string) (model.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return model.SessionSnapshot{}, model.NewNotFoundError(
			fmt.Sprintf("session %q not found", sessionID),
		)
	}

	responses := make([]model.StepResponse, 0, len(s.responses[sessionID]))
	for _, r := range s.responses[sessionID] {
		responses = append(responses, r)
	}
	sort.Slice(responses, func(i, j int) bool {
		return responses[i].StepID < responses[j].StepID
	})

	return model.SessionSnapshot{Session: session, Responses: responses}, nil
}

// UpsertStepResponse creates or replaces the response for (sessionID, stepID).
// Stale sequence numbers are discarded without error.
func (s *MemoryStore) UpsertStepResponse(_ context.Context, sessionID string, resp model.StepResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return model.NewNotFoundError(
			fmt.Sprintf("session %q not found", sessionID),
		)
	}

	existing, exists := s.responses[sessionID][resp.StepID]
	if exists && resp.Seq <= existing.Seq {
		// A newer write already landed; discard the late arrival.
		return nil
	}

	resp.SessionID = sessionID
	resp.UpdatedAt = time.Now().UTC()
	s.responses[sessionID][resp.StepID] = resp
	return nil
}

// UpdateSessionNavigation persists the session's current step index.
func (s *MemoryStore) UpdateSessionNavigation(_ context.Context, sessionID string, currentStepIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return model.NewNotFoundError(
			fmt.Sprintf("session %q not found", sessionID),
		)
	}

	session.CurrentStepIndex = currentStepIndex
	session.UpdatedAt = time.Now().UTC()
	s.sessions[sessionID] = session
	return nil
}

// CompleteSession transitions the session to completed exactly once.
func (s *MemoryStore) CompleteSession(_ context.Context, sessionID string) (model.ReportHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return model.ReportHandle{}, model.NewNotFoundError(
			fmt.Sprintf("session %q not found", sessionID),
		)
	}
	if session.Status == model.SessionStatusCompleted {
		return model.ReportHandle{}, model.NewAlreadyCompletedError(sessionID)
	}

	session.Status = model.SessionStatusCompleted
	session.UpdatedAt = time.Now().UTC()
	s.sessions[sessionID] = session

	handle := model.ReportHandle{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		RequestedAt: time.Now().UTC(),
	}
	s.reports[sessionID] = handle
	return handle, nil
}

// DeleteSession removes a session and its responses.
func (s *MemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return model.NewNotFoundError(
			fmt.Sprintf("session %q not found", sessionID),
		)
	}

	delete(s.sessions, sessionID)
	delete(s.responses, sessionID)
	delete(s.reports, sessionID)
	return nil
}

// HealthCheck always succeeds; the in-memory store has no external dependency.
func (s *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}

// Len returns the number of stored sessions. For testing.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
