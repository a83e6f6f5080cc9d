package formshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/employeeform"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

const submitEndpoint = "forms.submit"

type submitRequest struct {
	Reset bool `json:"reset"`
}

type submitResponse struct {
	Result employeeform.Result `json:"result"`
	Form   employeeform.View   `json:"form"`
}

// handleSubmit runs one submit cycle. A blocked or failed submit is still a
// 200: the result carries the state and the message shown to the user.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	f, session, ok := h.form(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload submitRequest
	if err := shared.DecodeJSON(r, &payload); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	formID := chi.URLParam(r, "formID")
	idemKey := r.Header.Get(middleware.IdempotencyHeader)
	requestHash := middleware.RequestHash([]byte(formID + ":" + strconv.FormatBool(payload.Reset)))
	if idemKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), session.TenantID, session.UserID, submitEndpoint, idemKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), requestID)
			return
		}
		if err != nil {
			slog.Warn("idempotency lookup failed", "requestId", requestID, "err", err)
		}
		if found {
			var replay submitResponse
			if err := json.Unmarshal(stored, &replay); err == nil {
				w.Header().Set("Idempotent-Replay", "true")
				api.Success(w, replay, requestID)
				return
			}
		}
	}

	editing := f.View().EmployeeID != ""
	result, err := f.Submit(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.auditSubmit(r, session.TenantID, session.UserID, editing, result)

	if result.Success && payload.Reset {
		if err := f.Reset(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
	}

	resp := submitResponse{Result: result, Form: f.View()}
	if idemKey != "" && result.State != employeeform.StateBlocked {
		encoded, err := json.Marshal(resp)
		if err == nil {
			err = h.Idempotency.Save(r.Context(), session.TenantID, session.UserID, submitEndpoint, idemKey, requestHash, encoded)
		}
		if err != nil {
			slog.Warn("idempotency save failed", "requestId", requestID, "err", err)
		}
	}
	api.Success(w, resp, requestID)
}

func (h *Handler) auditSubmit(r *http.Request, tenantID, actorID string, editing bool, result employeeform.Result) {
	action := audit.ActionEmployeeCreate
	if editing {
		action = audit.ActionEmployeeUpdate
	}
	switch result.State {
	case employeeform.StateSucceeded:
	case employeeform.StateFailed:
		action = audit.ActionEmployeeSubmitFail
	default:
		return
	}
	after := map[string]string{"state": string(result.State), "message": result.Message}
	if err := h.Audit.Record(r.Context(), tenantID, actorID, action, "employee", result.EmployeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
