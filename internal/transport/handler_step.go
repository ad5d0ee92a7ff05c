package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/briefkit/wizard/internal/observability"
	"github.com/briefkit/wizard/model"
)

// handleStepUpsert persists the full field map for one step. The body is the
// whole map, never a diff. A sequence number may be supplied by the editing
// surface; writes at or below the stored sequence are discarded by the store,
// which keeps duplicate and out-of-order deliveries harmless.
func handleStepUpsert(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")
		stepID := chi.URLParam(r, "stepId")

		stepDef, ok := deps.Catalog.ByID(stepID)
		if !ok {
			WriteNotFound(w, fmt.Sprintf("step %q not found in catalog", stepID))
			return
		}

		var body struct {
			Data model.FieldMap `json:"data"`
			Seq  int64          `json:"seq"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, model.NewBadRequestError("invalid JSON body"))
			return
		}
		if body.Data == nil {
			body.Data = model.FieldMap{}
		}

		if details := validateFieldMap(stepDef, body.Data); len(details) > 0 {
			WriteValidationError(w, details)
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

		seq := body.Seq
		if seq == 0 {
			// No client sequence: continue from the stored one. Safe under
			// the single-writer assumption.
			for _, resp := range snap.Responses {
				if resp.StepID == stepID {
					seq = resp.Seq
					break
				}
			}
			seq++
		}

		payload, err := json.Marshal(body.Data)
		if err != nil {
			WriteError(w, model.NewBadRequestError("field map is not serializable"))
			return
		}

		start := time.Now()
		err = deps.Store.UpsertStepResponse(r.Context(), sessionID, model.StepResponse{
			SessionID:   sessionID,
			StepID:      stepID,
			Data:        payload,
			IsCompleted: true,
			Seq:         seq,
		})
		if deps.Metrics != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			deps.Metrics.RecordStepSave(stepID, status, time.Since(start))
		}
		if err != nil {
			WriteError(w, err)
			return
		}

		observability.RequestLogger(r.Context(), deps.Logger).Debug("step saved",
			sessionField(sessionID),
			zap.String("step_id", stepID),
			zap.Int64("seq", seq),
		)
		WriteJSON(w, http.StatusOK, map[string]any{
			"step_id": stepID,
			"seq":     seq,
		})
	}
}

// validateFieldMap checks the field-subset invariant and the value shape:
// keys must be declared for the step, and values must be scalars, booleans,
// numbers, or string lists. Nested objects are rejected.
func validateFieldMap(stepDef model.StepDefinition, data model.FieldMap) []model.FieldError {
	declared := make(map[string]bool, len(stepDef.Fields))
	for _, f := range stepDef.Fields {
		declared[f] = true
	}

	var details []model.FieldError
	for key, value := range data {
		if !declared[key] {
			details = append(details, model.FieldError{
				Field:   key,
				Code:    "UNKNOWN_FIELD",
				Message: fmt.Sprintf("field is not declared for step %q", stepDef.ID),
			})
			continue
		}
		if !validFieldValue(value) {
			details = append(details, model.FieldError{
				Field:   key,
				Code:    "INVALID_VALUE",
				Message: "value must be a scalar, boolean, number, or list of strings",
			})
		}
	}
	return details
}

func validFieldValue(value any) bool {
	switch v := value.(type) {
	case nil, string, bool, float64, int, int64:
		return true
	case []any:
		for _, item := range v {
			switch item.(type) {
			case string, float64, int, int64:
			default:
				return false
			}
		}
		return true
	case []string:
		return true
	default:
		return false
	}
}
