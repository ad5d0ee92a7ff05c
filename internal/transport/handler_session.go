package transport

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/briefkit/wizard/internal/observability"
	"github.com/briefkit/wizard/internal/wizard"
	"github.com/briefkit/wizard/model"
)

func handleSessionCreate(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProjectName string `json:"project_name"`
			ClientName  string `json:"client_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, model.NewBadRequestError("invalid JSON body"))
			return
		}
		if strings.TrimSpace(body.ProjectName) == "" {
			WriteValidationError(w, []model.FieldError{{
				Field:   "project_name",
				Code:    "REQUIRED",
				Message: "project_name is required",
			}})
			return
		}

		now := time.Now().UTC()
		session := model.Session{
			ID:               uuid.New().String(),
			ProjectName:      body.ProjectName,
			ClientName:       body.ClientName,
			CurrentStepIndex: 0,
			Status:           model.SessionStatusInProgress,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		if err := deps.Store.CreateSession(r.Context(), session); err != nil {
			WriteError(w, err)
			return
		}
		if deps.Metrics != nil {
			deps.Metrics.SessionsCreatedTotal.Inc()
		}

		observability.RequestLogger(r.Context(), deps.Logger).Info("session created",
			sessionField(session.ID),
		)
		WriteJSON(w, http.StatusCreated, session)
	}
}

// handleSessionLoad returns the resume snapshot for a session: the session
// record and the hydrated working state for every catalog step. Hydration
// runs through the wizard controller, so a malformed stored payload degrades
// to an empty step instead of failing the load.
func handleSessionLoad(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")

		snap, err := deps.Store.LoadSession(r.Context(), sessionID)
		if err != nil {
			WriteError(w, err)
			return
		}

		opts := []wizard.Option{
			wizard.WithLogger(observability.RequestLogger(r.Context(), deps.Logger)),
		}
		if deps.Metrics != nil {
			opts = append(opts, wizard.WithParseFailureNotify(deps.Metrics.RecordHydrationParseFailure))
		}

		ctrl := wizard.NewController(deps.Catalog, deps.Store, sessionID, opts...)
		ctrl.Hydrate(snap.Session, snap.Responses)
		if deps.Metrics != nil {
			deps.Metrics.RecordHydration()
		}

		session := snap.Session
		session.CurrentStepIndex = ctrl.StepIndex()

		WriteJSON(w, http.StatusOK, map[string]any{
			"session":         session,
			"catalog_version": deps.Catalog.Version,
			"steps":           ctrl.WorkingState(),
		})
	}
}

func handleSessionComplete(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")

		snap, err := deps.Store.LoadSession(r.Context(), sessionID)
		if err != nil {
			WriteError(w, err)
			return
		}

		handle, err := deps.Gate.Complete(r.Context(), snap.Session)
		if model.IsCode(err, model.ErrAlreadyCompleted) {
			// Safe to invoke more than once; report success with notice.
			if deps.Metrics != nil {
				deps.Metrics.RecordCompletion("already_completed")
			}
			WriteJSON(w, http.StatusOK, map[string]any{
				"already_completed": true,
			})
			return
		}
		if err != nil {
			if deps.Metrics != nil {
				deps.Metrics.RecordCompletion("error")
			}
			WriteError(w, err)
			return
		}

		if deps.Metrics != nil {
			deps.Metrics.RecordCompletion("completed")
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"already_completed": false,
			"report":            handle,
		})
	}
}
