package formshandler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/attachments"
	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/collection"
	"hrconsole/internal/domain/employeeform"
	"hrconsole/internal/domain/formsession"
	"hrconsole/internal/domain/refdata"
	"hrconsole/internal/hrapi"
	"hrconsole/internal/platform/metrics"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

type Handler struct {
	Client      *hrapi.Client
	Refs        *refdata.Resolver
	Forms       *formsession.Registry[*employeeform.Form]
	Metrics     *metrics.Collector
	Options     employeeform.Options
	Audit       *audit.Service
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(client *hrapi.Client, refs *refdata.Resolver, forms *formsession.Registry[*employeeform.Form], collector *metrics.Collector, opts employeeform.Options) *Handler {
	return &Handler{
		Client:  client,
		Refs:    refs,
		Forms:   forms,
		Metrics: collector,
		Options: opts,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/forms", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermEmployeesWrite))
		r.Post("/employees", h.handleOpen)
		r.Route("/{formID}", func(r chi.Router) {
			r.Get("/", h.handleView)
			r.Delete("/", h.handleClose)
			r.Patch("/fields", h.handleSetField)
			r.Put("/location/{part}", h.handleSelectLocation)
			r.Put("/department", h.handleSelectDepartment)
			r.Put("/designation", h.handleSelectDesignation)
			r.Put("/references/{kind}", h.handleSelectReference)
			r.With(middleware.RequirePermission(auth.PermOrgWrite)).Post("/references/{kind}", h.handleCreateReference)
			r.Post("/references/{kind}/refresh", h.handleRefreshReference)
			r.Post("/documents", h.handleAddDocument)
			r.Patch("/documents/{key}", h.handleUpdateDocument)
			r.Delete("/documents/{key}", h.handleRemoveDocument)
			r.Post("/documents/{key}/files", h.handleAttachFiles)
			r.Delete("/documents/{key}/previews/{index}", h.handleDetachPreview)
			r.Get("/previews/{handle}", h.handlePreview)
			r.Post("/experiences", h.handleAddExperience)
			r.Patch("/experiences/{key}", h.handleUpdateExperience)
			r.Delete("/experiences/{key}", h.handleRemoveExperience)
			r.Post("/submit", h.handleSubmit)
		})
	})
}

func (h *Handler) depsFor(session auth.Session) employeeform.Deps {
	client := h.Client.ForSession(session)
	return employeeform.Deps{
		Refs:    h.Refs.WithSource(client, session.TenantID),
		Gateway: client,
		Checker: client,
		Metrics: h.Metrics,
		Options: h.Options,
	}
}

// form resolves the session and the form named in the path. It writes the
// failure response itself and returns ok=false when either is missing.
func (h *Handler) form(w http.ResponseWriter, r *http.Request) (*employeeform.Form, auth.Session, bool) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return nil, auth.Session{}, false
	}
	f, err := h.Forms.Get(chi.URLParam(r, "formID"), session)
	if err != nil {
		writeError(w, r, err)
		return nil, session, false
	}
	return f, session, true
}

type openRequest struct {
	EmployeeID string `json:"employeeId"`
}

type openResponse struct {
	FormID string            `json:"formId"`
	Form   employeeform.View `json:"form"`
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload openRequest
	if err := shared.DecodeJSON(r, &payload); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	deps := h.depsFor(session)
	var (
		f   *employeeform.Form
		err error
	)
	if payload.EmployeeID != "" {
		f, err = employeeform.Load(r.Context(), deps, session, payload.EmployeeID)
	} else {
		f, err = employeeform.New(r.Context(), deps, session)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	formID := h.Forms.Add(session, f)
	h.Metrics.FormOpened()
	slog.Info("form session opened", "formId", formID, "employeeId", payload.EmployeeID, "userId", session.UserID)
	api.Created(w, openResponse{FormID: formID, Form: f.View()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	api.Success(w, f.View(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Forms.Remove(chi.URLParam(r, "formID"), session); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type fieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

func (h *Handler) handleSetField(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	var payload fieldRequest
	if !decode(w, r, &payload) {
		return
	}
	value, err := f.SetField(payload.Field, payload.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"field": payload.Field, "value": value, "form": f.View()}, middleware.GetRequestID(r.Context()))
}

type locationRequest struct {
	Mode refdata.Mode `json:"mode" validate:"omitempty,oneof=reference manual"`
	ID   string       `json:"id"`
	Text string       `json:"text"`
}

func (h *Handler) handleSelectLocation(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	part, known := refdata.ParseKind(chi.URLParam(r, "part"))
	if !known {
		writeError(w, r, employeeform.ErrUnknownPart)
		return
	}
	var payload locationRequest
	if !decode(w, r, &payload) {
		return
	}
	value := refdata.Value{Mode: payload.Mode, ID: payload.ID, Text: payload.Text}
	if err := f.SelectLocation(r.Context(), part, value); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, f.View(), middleware.GetRequestID(r.Context()))
}

type selectRequest struct {
	ID string `json:"id"`
}

func (h *Handler) handleSelectDepartment(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	var payload selectRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := f.SelectDepartment(r.Context(), payload.ID); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, f.View(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelectDesignation(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	var payload selectRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := f.SelectDesignation(payload.ID); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, f.View(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelectReference(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var payload selectRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := f.SelectReference(kind, payload.ID); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, f.View(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateReference(w http.ResponseWriter, r *http.Request) {
	f, session, ok := h.form(w, r)
	if !ok {
		return
	}
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var payload refdata.CreateInput
	if !decode(w, r, &payload) {
		return
	}
	created, err := f.CreateReference(r.Context(), kind, payload.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("reference created inline", "kind", kind, "id", created.ID, "userId", session.UserID)
	api.Created(w, map[string]any{"created": created, "form": f.View()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRefreshReference(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	list, err := f.RefreshReference(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

type addDocumentRequest struct {
	CopyFrom string `json:"copyFrom"`
}

type itemResponse struct {
	Key  string            `json:"key"`
	Form employeeform.View `json:"form"`
}

func (h *Handler) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	var payload addDocumentRequest
	if err := shared.DecodeJSON(r, &payload); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	var (
		key string
		err error
	)
	if payload.CopyFrom != "" {
		key, err = f.CopyDocument(payload.CopyFrom)
	} else {
		key, err = f.AddDocument()
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, itemResponse{Key: key, Form: f.View()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	var patch employeeform.DocumentPatch
	if !decode(w, r, &patch) {
		return
	}
	if err := f.UpdateDocument(chi.URLParam(r, "key"), patch); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, f.View(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	if err := f.RemoveDocument(chi.URLParam(r, "key")); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, f.View(), middleware.GetRequestID(r.Context()))
}

const multipartMemory = 4 << 20

func (h *Handler) handleAttachFiles(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, attachments.ErrFileTooLarge)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "expected multipart form with files", middleware.GetRequestID(r.Context()))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "no files provided", middleware.GetRequestID(r.Context()))
		return
	}
	files := make([]attachments.File, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "unreadable file", middleware.GetRequestID(r.Context()))
			return
		}
		file, err := f.StageFile(header.Filename, src)
		_ = src.Close()
		if err != nil {
			writeError(w, r, err)
			return
		}
		files = append(files, file)
	}

	handles, err := f.AttachFiles(chi.URLParam(r, "key"), files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, map[string]any{"handles": handles, "form": f.View()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDetachPreview(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, attachments.ErrPreviewNotFound)
		return
	}
	if err := f.DetachPreview(chi.URLParam(r, "key"), index); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, f.View(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	file, found := f.Preview(chi.URLParam(r, "handle"))
	if !found {
		writeError(w, r, attachments.ErrPreviewNotFound)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(file.Size()))
	w.Header().Set("Cache-Control", "no-store")
	if disposition := mime.FormatMediaType("inline", map[string]string{"filename": file.Name}); disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

func (h *Handler) handleAddExperience(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	key, err := f.AddExperience()
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, itemResponse{Key: key, Form: f.View()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	var patch employeeform.ExperiencePatch
	if !decode(w, r, &patch) {
		return
	}
	if err := f.UpdateExperience(chi.URLParam(r, "key"), patch); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, f.View(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveExperience(w http.ResponseWriter, r *http.Request) {
	f, _, ok := h.form(w, r)
	if !ok {
		return
	}
	if err := f.RemoveExperience(chi.URLParam(r, "key")); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, f.View(), middleware.GetRequestID(r.Context()))
}

func kindParam(w http.ResponseWriter, r *http.Request) (refdata.Kind, bool) {
	kind, ok := refdata.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		api.Fail(w, http.StatusNotFound, "unknown_reference", "unknown reference kind", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return kind, true
}

// decode reads a required JSON body and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	v := shared.NewValidator()
	v.Struct(dst)
	return !v.Reject(w, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	var apiErr *hrapi.APIError
	switch {
	case errors.Is(err, formsession.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "form_not_found", "form not found", requestID)
	case errors.Is(err, formsession.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "form belongs to another user", requestID)
	case errors.Is(err, employeeform.ErrClosed):
		api.Fail(w, http.StatusGone, "form_closed", "form is closed", requestID)
	case errors.Is(err, employeeform.ErrSubmitInFlight):
		api.Fail(w, http.StatusConflict, "submit_in_flight", err.Error(), requestID)
	case errors.Is(err, employeeform.ErrAlreadySubmitted):
		api.Fail(w, http.StatusConflict, "already_submitted", err.Error(), requestID)
	case errors.Is(err, collection.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "item_not_found", "item not found", requestID)
	case errors.Is(err, collection.ErrMinimumItems):
		api.Fail(w, http.StatusConflict, "minimum_items", err.Error(), requestID)
	case errors.Is(err, attachments.ErrUnsupportedType):
		api.Fail(w, http.StatusUnsupportedMediaType, "unsupported_file", "only images and PDF files can be attached", requestID)
	case errors.Is(err, attachments.ErrFileTooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), requestID)
	case errors.Is(err, attachments.ErrEmptyFile):
		api.Fail(w, http.StatusBadRequest, "empty_file", err.Error(), requestID)
	case errors.Is(err, attachments.ErrPreviewNotFound), errors.Is(err, attachments.ErrHandleReleased):
		api.Fail(w, http.StatusNotFound, "preview_not_found", "preview not found", requestID)
	case errors.Is(err, employeeform.ErrUnknownField),
		errors.Is(err, employeeform.ErrInvalidValue),
		errors.Is(err, employeeform.ErrUnknownPart),
		errors.Is(err, employeeform.ErrNotSelectable),
		errors.Is(err, refdata.ErrManualParent),
		errors.Is(err, refdata.ErrParentRequired),
		errors.Is(err, refdata.ErrDesignationMismatch),
		errors.Is(err, refdata.ErrUnknownReference),
		errors.Is(err, refdata.ErrEmptyName),
		errors.Is(err, refdata.ErrNotCreatable):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_selection", err.Error(), requestID)
	case errors.Is(err, refdata.ErrCreatedNotListed):
		api.Fail(w, http.StatusBadGateway, "reference_not_listed", err.Error(), requestID)
	case errors.As(err, &apiErr) && apiErr.NotFound():
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestID)
	case errors.As(err, &apiErr):
		message := apiErr.Message
		if message == "" {
			message = "hr api request failed"
		}
		api.Fail(w, http.StatusBadGateway, "upstream_error", message, requestID)
	case errors.Is(err, context.DeadlineExceeded):
		api.Fail(w, http.StatusGatewayTimeout, "upstream_timeout", "hr api did not answer in time", requestID)
	default:
		slog.Error("form request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
