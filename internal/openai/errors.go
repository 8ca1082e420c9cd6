package openai

import (
	"fmt"

	"github.com/askchopper-dev/askchopper/internal/domain"
)

// APIError carries the provider's error payload alongside the HTTP status,
// so operators can see the underlying failure in logs while callers branch
// on the wrapped domain sentinel.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return domain.ErrProviderAuth
	case e.StatusCode == 429:
		return domain.ErrProviderRateLimit
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return domain.ErrProviderRequest
	}
	return nil
}
