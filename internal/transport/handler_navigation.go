package transport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/briefkit/wizard/internal/observability"
	"github.com/briefkit/wizard/model"
)

// handleNavigationUpdate persists the current step index. Out-of-range
// indexes are clamped to the catalog bounds rather than rejected, so the
// stored position is always valid for this catalog version.
func handleNavigationUpdate(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")

		var body struct {
			CurrentStepIndex int `json:"current_step_index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, model.NewBadRequestError("invalid JSON body"))
			return
		}

		snap, err := deps.Store.LoadSession(r.Context(), sessionID)
		if err != nil {
			WriteError(w, err)
			return
		}
		if snap.Session.IsCompleted() {
			WriteError(w, model.NewSessionCompletedError(sessionID))
			return
		}

		index := deps.Catalog.ClampIndex(body.CurrentStepIndex)
		err = deps.Store.UpdateSessionNavigation(r.Context(), sessionID, index)
		if deps.Metrics != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			deps.Metrics.RecordNavigationSave(status)
		}
		if err != nil {
			WriteError(w, err)
			return
		}

		observability.RequestLogger(r.Context(), deps.Logger).Debug("navigation saved",
			sessionField(sessionID),
			zap.Int("current_step_index", index),
		)
		WriteJSON(w, http.StatusOK, map[string]any{
			"current_step_index": index,
		})
	}
}
