package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/briefkit/wizard/model"
)

// PgStore is a PostgreSQL-backed SessionStore using pgx/v5.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a new PostgreSQL session store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// HealthCheck reports whether the database is reachable. Used by readiness
// checks.
func (s *PgStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateSession inserts a new session record.
func (s *PgStore) CreateSession(ctx context.Context, session model.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (
			id, project_name, client_name, current_step_index, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.ID, session.ProjectName, session.ClientName,
		session.CurrentStepIndex, session.Status,
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return model.NewStoreUnavailableError(fmt.Errorf("insert session: %w", err))
	}
	return nil
}

// LoadSession retrieves the session record and all of its step responses.
func (s *PgStore) LoadSession(ctx context.Context, sessionID string) (model.SessionSnapshot, error) {
	var snap model.SessionSnapshot

	err := s.pool.QueryRow(ctx, `
		SELECT id, project_name, client_name, current_step_index, status,
		       created_at, updated_at
		FROM sessions
		WHERE id = $1`,
		sessionID,
	).Scan(
		&snap.Session.ID, &snap.Session.ProjectName, &snap.Session.ClientName,
		&snap.Session.CurrentStepIndex, &snap.Session.Status,
		&snap.Session.CreatedAt, &snap.Session.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return model.SessionSnapshot{}, model.NewNotFoundError(
			fmt.Sprintf("session %q not found", sessionID),
		)
	}
	if err != nil {
		return model.SessionSnapshot{}, model.NewStoreUnavailableError(fmt.Errorf("query session: %w", err))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT session_id, step_id, data, is_completed, seq, updated_at
		FROM step_responses
		WHERE session_id = $1
		ORDER BY step_id ASC`,
		sessionID,
	)
	if err != nil {
		return model.SessionSnapshot{}, model.NewStoreUnavailableError(fmt.Errorf("query step responses: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var resp model.StepResponse
		if err := rows.Scan(
			&resp.SessionID, &resp.StepID, &resp.Data,
			&resp.IsCompleted, &resp.Seq, &resp.UpdatedAt,
		); err != nil {
			return model.SessionSnapshot{}, model.NewStoreUnavailableError(fmt.Errorf("scan step response: %w", err))
		}
		snap.Responses = append(snap.Responses, resp)
	}
	if err := rows.Err(); err != nil {
		return model.SessionSnapshot{}, model.NewStoreUnavailableError(err)
	}

	return snap, nil
}

// UpsertStepResponse creates or replaces the response for (sessionID, stepID).
// The conditional update discards writes whose seq is not newer than the
// stored row, so out-of-order duplicate deliveries are harmless.
func (s *PgStore) UpsertStepResponse(ctx context.Context, sessionID string, resp model.StepResponse) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO step_responses (session_id, step_id, data, is_completed, seq, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, step_id) DO UPDATE SET
			data = EXCLUDED.data,
			is_completed = EXCLUDED.is_completed,
			seq = EXCLUDED.seq,
			updated_at = EXCLUDED.updated_at
		WHERE step_responses.seq < EXCLUDED.seq`,
		sessionID, resp.StepID, []byte(resp.Data), resp.IsCompleted,
		resp.Seq, time.Now().UTC(),
	)
	if err != nil {
		return model.NewStoreUnavailableError(fmt.Errorf("upsert step response: %w", err))
	}
	return nil
}

// UpdateSessionNavigation persists the session's current step index.
func (s *PgStore) UpdateSessionNavigation(ctx context.Context, sessionID string, currentStepIndex int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET
			current_step_index = $1,
			updated_at = $2
		WHERE id = $3`,
		currentStepIndex, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return model.NewStoreUnavailableError(fmt.Errorf("update navigation: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError(
			fmt.Sprintf("session %q not found", sessionID),
		)
	}
	return nil
}

// CompleteSession transitions the session to completed exactly once. The
// status predicate in the UPDATE makes the transition race-safe: a concurrent
// retry sees zero rows affected and receives ALREADY_COMPLETED.
func (s *PgStore) CompleteSession(ctx context.Context, sessionID string) (model.ReportHandle, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET
			status = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4`,
		model.SessionStatusCompleted, time.Now().UTC(),
		sessionID, model.SessionStatusInProgress,
	)
	if err != nil {
		return model.ReportHandle{}, model.NewStoreUnavailableError(fmt.Errorf("complete session: %w", err))
	}
	if tag.RowsAffected() == 0 {
		// Either missing or already completed; distinguish with a lookup.
		var status string
		err := s.pool.QueryRow(ctx,
			`SELECT status FROM sessions WHERE id = $1`, sessionID,
		).Scan(&status)
		if err == pgx.ErrNoRows {
			return model.ReportHandle{}, model.NewNotFoundError(
				fmt.Sprintf("session %q not found", sessionID),
			)
		}
		if err != nil {
			return model.ReportHandle{}, model.NewStoreUnavailableError(err)
		}
		return model.ReportHandle{}, model.NewAlreadyCompletedError(sessionID)
	}

	handle := model.ReportHandle{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		RequestedAt: time.Now().UTC(),
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO report_handles (id, session_id, requested_at)
		VALUES ($1, $2, $3)`,
		handle.ID, handle.SessionID, handle.RequestedAt,
	)
	if err != nil {
		return model.ReportHandle{}, model.NewStoreUnavailableError(fmt.Errorf("insert report handle: %w", err))
	}
	return handle, nil
}

// DeleteSession removes a session, its responses, and its report handle.
func (s *PgStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM step_responses WHERE session_id = $1`, sessionID)
	if err != nil {
		return model.NewStoreUnavailableError(fmt.Errorf("delete step responses: %w", err))
	}
	_, err = s.pool.Exec(ctx,
		`DELETE FROM report_handles WHERE session_id = $1`, sessionID)
	if err != nil {
		return model.NewStoreUnavailableError(fmt.Errorf("delete report handles: %w", err))
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return model.NewStoreUnavailableError(fmt.Errorf("delete session: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError(
			fmt.Sprintf("session %q not found", sessionID),
		)
	}
	return nil
}
