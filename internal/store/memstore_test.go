package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/briefkit/wizard/model"
)

func testSession(id string) model.Session {
	now := time.Now().UTC()
	return model.Session{
		ID:          id,
		ProjectName: "Acme Rebrand",
		Status:      model.SessionStatusInProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// --- CreateSession / LoadSession ---

func TestMemoryStore_CreateAndLoad(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.CreateSession(ctx, testSession("s-1")); err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}

	snap, err := s.LoadSession(ctx, "s-1")
	if err != nil {
		t.Fatalf("LoadSession error: %v", err)
	}
	if snap.Session.ProjectName != "Acme Rebrand" {
		t.Errorf("ProjectName = %q", snap.Session.ProjectName)
	}
	if len(snap.Responses) != 0 {
		t.Errorf("Responses count = %d, want 0", len(snap.Responses))
	}
}

func TestMemoryStore_CreateSession_duplicate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.CreateSession(ctx, testSession("s-1"))
	err := s.CreateSession(ctx, testSession("s-1"))
	if !model.IsCode(err, model.ErrConflict) {
		t.Errorf("err = %v, want CONFLICT", err)
	}
}

func TestMemoryStore_LoadSession_notFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.LoadSession(context.Background(), "nonexistent")
	if !model.IsCode(err, model.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

// --- UpsertStepResponse ---

func TestMemoryStore_UpsertStepResponse_replaces(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.CreateSession(ctx, testSession("s-1"))

	first := model.StepResponse{
		StepID:      "color",
		Data:        json.RawMessage(`{"preferred_colors":["blue"]}`),
		IsCompleted: true,
		Seq:         1,
	}
	second := model.StepResponse{
		StepID:      "color",
		Data:        json.RawMessage(`{"preferred_colors":["blue","green"]}`),
		IsCompleted: true,
		Seq:         2,
	}
	if err := s.UpsertStepResponse(ctx, "s-1", first); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := s.UpsertStepResponse(ctx, "s-1", second); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	snap, _ := s.LoadSession(ctx, "s-1")
	if len(snap.Responses) != 1 {
		t.Fatalf("Responses count = %d, want 1 (replace, not append)", len(snap.Responses))
	}
	if string(snap.Responses[0].Data) != `{"preferred_colors":["blue","green"]}` {
		t.Errorf("Data = %s", snap.Responses[0].Data)
	}
	if snap.Responses[0].Seq != 2 {
		t.Errorf("Seq = %d, want 2", snap.Responses[0].Seq)
	}
}

func TestMemoryStore_UpsertStepResponse_staleSeqDiscarded(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.CreateSession(ctx, testSession("s-1"))

	newer := model.StepResponse{StepID: "color", Data: json.RawMessage(`{"v":"new"}`), Seq: 5}
	stale := model.StepResponse{StepID: "color", Data: json.RawMessage(`{"v":"old"}`), Seq: 3}
	equal := model.StepResponse{StepID: "color", Data: json.RawMessage(`{"v":"dup"}`), Seq: 5}

	_ = s.UpsertStepResponse(ctx, "s-1", newer)
	if err := s.UpsertStepResponse(ctx, "s-1", stale); err != nil {
		t.Fatalf("stale upsert should be a silent no-op, got: %v", err)
	}
	if err := s.UpsertStepResponse(ctx, "s-1", equal); err != nil {
		t.Fatalf("equal-seq upsert should be a silent no-op, got: %v", err)
	}

	snap, _ := s.LoadSession(ctx, "s-1")
	if string(snap.Responses[0].Data) != `{"v":"new"}` {
		t.Errorf("Data = %s, stale write must not overwrite newer one", snap.Responses[0].Data)
	}
}

func TestMemoryStore_UpsertStepResponse_sessionNotFound(t *testing.T) {
	s := NewMemoryStore()
	err := s.UpsertStepResponse(context.Background(), "nonexistent", model.StepResponse{StepID: "a", Seq: 1})
	if !model.IsCode(err, model.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

// --- UpdateSessionNavigation ---

func TestMemoryStore_UpdateSessionNavigation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.CreateSession(ctx, testSession("s-1"))

	if err := s.UpdateSessionNavigation(ctx, "s-1", 3); err != nil {
		t.Fatalf("UpdateSessionNavigation error: %v", err)
	}
	snap, _ := s.LoadSession(ctx, "s-1")
	if snap.Session.CurrentStepIndex != 3 {
		t.Errorf("CurrentStepIndex = %d, want 3", snap.Session.CurrentStepIndex)
	}

	err := s.UpdateSessionNavigation(ctx, "nonexistent", 1)
	if !model.IsCode(err, model.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

// --- CompleteSession ---

func TestMemoryStore_CompleteSession(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.CreateSession(ctx, testSession("s-1"))

	handle, err := s.CompleteSession(ctx, "s-1")
	if err != nil {
		t.Fatalf("CompleteSession error: %v", err)
	}
	if handle.ID == "" {
		t.Error("expected non-empty report handle ID")
	}
	if handle.SessionID != "s-1" {
		t.Errorf("handle.SessionID = %q", handle.SessionID)
	}

	snap, _ := s.LoadSession(ctx, "s-1")
	if snap.Session.Status != model.SessionStatusCompleted {
		t.Errorf("Status = %q, want completed", snap.Session.Status)
	}
}

func TestMemoryStore_CompleteSession_twice(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.CreateSession(ctx, testSession("s-1"))

	_, _ = s.CompleteSession(ctx, "s-1")
	_, err := s.CompleteSession(ctx, "s-1")
	if !model.IsCode(err, model.ErrAlreadyCompleted) {
		t.Errorf("err = %v, want ALREADY_COMPLETED", err)
	}
}

func TestMemoryStore_CompleteSession_notFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.CompleteSession(context.Background(), "nonexistent")
	if !model.IsCode(err, model.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

// --- DeleteSession ---

func TestMemoryStore_DeleteSession(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.CreateSession(ctx, testSession("s-1"))
	_ = s.UpsertStepResponse(ctx, "s-1", model.StepResponse{StepID: "a", Seq: 1})

	if err := s.DeleteSession(ctx, "s-1"); err != nil {
		t.Fatalf("DeleteSession error: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
	if _, err := s.LoadSession(ctx, "s-1"); !model.IsCode(err, model.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND after delete", err)
	}

	if err := s.DeleteSession(ctx, "s-1"); !model.IsCode(err, model.ErrNotFound) {
		t.Errorf("second delete err = %v, want NOT_FOUND", err)
	}
}
