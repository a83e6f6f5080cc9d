package hrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/refdata"
)

const maxResponseBytes = 8 << 20

// MultipartPayload is a request body that flattens itself into multipart parts.
type MultipartPayload interface {
	Encode(w *multipart.Writer) error
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// ForSession returns a copy of the client that authenticates as session.
func (c *Client) ForSession(session auth.Session) *Client {
	clone := *c
	clone.token = session.Token
	return &clone
}

func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode >= 500 {
		return &APIError{Status: resp.StatusCode, Message: resp.Status}
	}
	return nil
}

func referencePath(kind refdata.Kind, parentID string) (string, error) {
	switch kind {
	case refdata.KindDepartment:
		return "/departments", nil
	case refdata.KindDesignation:
		return "/designations?departmentId=" + url.QueryEscape(parentID), nil
	case refdata.KindEmploymentType:
		return "/employment-types", nil
	case refdata.KindRole:
		return "/roles", nil
	case refdata.KindCountry:
		return "/countries", nil
	case refdata.KindState:
		return "/states?countryId=" + url.QueryEscape(parentID), nil
	case refdata.KindCity:
		return "/cities?stateId=" + url.QueryEscape(parentID), nil
	case refdata.KindManager:
		return "/employees/managers", nil
	}
	return "", fmt.Errorf("unknown reference kind %q", kind)
}

// ListReferences fetches one lookup list. Both a bare array and {items: [...]} are accepted.
func (c *Client) ListReferences(ctx context.Context, kind refdata.Kind, parentID string) ([]refdata.Item, error) {
	path, err := referencePath(kind, parentID)
	if err != nil {
		return nil, err
	}
	raw, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var refs []reference
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &refs); err != nil {
			return nil, fmt.Errorf("decode %s list: %w", kind, err)
		}
	default:
		var env referenceEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode %s list: %w", kind, err)
		}
		refs = env.Items
	}

	items := make([]refdata.Item, 0, len(refs))
	for _, ref := range refs {
		item := refdata.Item{ID: ref.ID.String(), Name: ref.Name}
		switch kind {
		case refdata.KindDesignation:
			item.ParentID = ref.DepartmentID.String()
		case refdata.KindState:
			item.ParentID = ref.CountryID.String()
		case refdata.KindCity:
			item.ParentID = ref.StateID.String()
		}
		if item.ParentID == "" && parentID != "" {
			item.ParentID = parentID
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Client) CreateReference(ctx context.Context, kind refdata.Kind, input refdata.CreateInput) (string, error) {
	path, err := referencePath(kind, "")
	if err != nil {
		return "", err
	}
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	body := map[string]string{"name": strings.TrimSpace(input.Name)}
	if kind == refdata.KindDesignation {
		body["departmentId"] = input.ParentID
	}
	raw, err := c.doJSON(ctx, http.MethodPost, path, body)
	if err != nil {
		return "", err
	}
	var created createdReference
	if err := json.Unmarshal(raw, &created); err != nil {
		return "", fmt.Errorf("decode created %s: %w", kind, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create %s: response carried no id", kind)
	}
	return created.ID.String(), nil
}

// CheckUnique reports whether value is already taken for field.
func (c *Client) CheckUnique(ctx context.Context, field, value, excludeID string) (bool, error) {
	raw, err := c.doJSON(ctx, http.MethodPost, "/employees/check-unique", uniqueCheckRequest{
		Field:     field,
		Value:     value,
		ExcludeID: excludeID,
	})
	if err != nil {
		return false, err
	}
	var resp uniqueCheckResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false, fmt.Errorf("decode unique check: %w", err)
	}
	if resp.Success == nil {
		return false, errors.New("decode unique check: response carried no success flag")
	}
	return !*resp.Success, nil
}

func (c *Client) GetEmployee(ctx context.Context, employeeID string) (*EmployeeRecord, error) {
	raw, err := c.doJSON(ctx, http.MethodGet, "/employees/"+url.PathEscape(employeeID), nil)
	if err != nil {
		return nil, err
	}
	var record EmployeeRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode employee: %w", err)
	}
	return &record, nil
}

// SaveEmployee issues exactly one multipart write: POST for a new employee, PUT for an existing one.
// It never retries.
func (c *Client) SaveEmployee(ctx context.Context, employeeID string, payload MultipartPayload) (WriteResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := payload.Encode(writer); err != nil {
		return WriteResult{}, fmt.Errorf("encode employee payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return WriteResult{}, fmt.Errorf("encode employee payload: %w", err)
	}

	method, path := http.MethodPost, "/employees"
	if employeeID != "" {
		method, path = http.MethodPut, "/employees/"+url.PathEscape(employeeID)
	}
	req, err := c.newRequest(ctx, method, path, &body, writer.FormDataContentType())
	if err != nil {
		return WriteResult{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return WriteResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return WriteResult{}, err
	}
	var result WriteResult
	decodeErr := json.Unmarshal(raw, &result)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return WriteResult{}, &APIError{Status: resp.StatusCode, Message: result.Message}
	}
	if decodeErr != nil {
		return WriteResult{}, fmt.Errorf("decode employee write: %w", decodeErr)
	}
	return result, nil
}

func (c *Client) DeleteDocument(ctx context.Context, employeeID, documentID string) error {
	_, err := c.doJSON(ctx, http.MethodPost, "/employees/documents/delete", documentDeleteRequest{
		EmployeeID: employeeID,
		DocumentID: documentID,
	})
	return err
}

func (c *Client) DeleteAllDocuments(ctx context.Context, employeeID string) error {
	_, err := c.doJSON(ctx, http.MethodPost, "/employees/documents/delete-all", documentDeleteRequest{
		EmployeeID: employeeID,
	})
	return err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	slog.Debug("hr api call", "method", method, "path", path, "status", resp.StatusCode, "durationMs", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

func errorMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	switch e := payload.Error.(type) {
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	return ""
}

// ServerMessage extracts the server-provided message from err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
