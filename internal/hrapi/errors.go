package hrapi

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the HR API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("hr api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("hr api: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}
