package documentshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/hrapi"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

// Deleter is the immediate-delete side of the HR API used by the documents screen.
type Deleter interface {
	DeleteDocument(ctx context.Context, employeeID, documentID string) error
	DeleteAllDocuments(ctx context.Context, employeeID string) error
}

// Handler serves the documents screen. Unlike the employee form, deletes here
// hit the HR API straight away, so each one must be explicitly confirmed.
type Handler struct {
	Client *hrapi.Client
	Audit  *audit.Service
}

func NewHandler(client *hrapi.Client, auditSvc *audit.Service) *Handler {
	return &Handler{Client: client, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees/{employeeID}/documents", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermDocumentsDelete))
		r.Delete("/", h.handleDeleteAll)
		r.Delete("/{documentID}", h.handleDelete)
	})
}

func (h *Handler) deleter(session auth.Session) Deleter {
	return h.Client.ForSession(session)
}

func confirmed(w http.ResponseWriter, r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if !ok {
		api.Fail(w, http.StatusPreconditionRequired, "confirmation_required", "deleting documents is immediate; repeat the request with confirm=true", middleware.GetRequestID(r.Context()))
	}
	return ok
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if !confirmed(w, r) {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	documentID := chi.URLParam(r, "documentID")

	if err := h.deleter(session).DeleteDocument(r.Context(), employeeID, documentID); err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	h.record(r, session, audit.ActionDocumentDelete, documentID, map[string]string{"employeeId": employeeID})
	api.Success(w, map[string]string{"employeeId": employeeID, "documentId": documentID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if !confirmed(w, r) {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	if err := h.deleter(session).DeleteAllDocuments(r.Context(), employeeID); err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	h.record(r, session, audit.ActionDocumentDeleteAll, employeeID, nil)
	api.Success(w, map[string]string{"employeeId": employeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) record(r *http.Request, session auth.Session, action, entityID string, after any) {
	if err := h.Audit.Record(r.Context(), session.TenantID, session.UserID, action, "document", entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	var apiErr *hrapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.NotFound() {
			api.Fail(w, http.StatusNotFound, "document_not_found", "document not found", requestID)
			return
		}
		message := apiErr.Message
		if message == "" {
			message = "failed to delete documents"
		}
		api.Fail(w, http.StatusBadGateway, "upstream_error", message, requestID)
		return
	}
	slog.Error("document delete failed", "path", r.URL.Path, "requestId", requestID, "err", err)
	api.Fail(w, http.StatusBadGateway, "upstream_error", "failed to delete documents", requestID)
}
