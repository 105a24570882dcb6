package satoru

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
)

// apiError is the error body shape the core API produces. The message field
// may be a single string or an array of validation messages.
type apiError struct {
	Message    json.RawMessage `json:"message"`
	Error      string          `json:"error"`
	StatusCode int             `json:"statusCode"`
}

// parseAPIError maps a core API error response to an application error,
// keeping the upstream message verbatim so the dashboard shows exactly what
// the platform said.
func parseAPIError(status int, body []byte) error {
	message := extractMessage(body)

	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if message == "" {
			message = "invalid request"
		}
		return apperrors.InvalidInput(message)
	case http.StatusUnauthorized:
		if message == "" {
			message = "unauthorized"
		}
		return apperrors.Unauthorized(message)
	case http.StatusForbidden:
		if message == "" {
			message = "forbidden"
		}
		return apperrors.Forbidden(message)
	case http.StatusNotFound:
		if message == "" {
			message = "not found"
		}
		return apperrors.NotFound(message)
	case http.StatusConflict:
		if message == "" {
			message = "conflict"
		}
		return apperrors.Conflict(message)
	default:
		if message == "" {
			message = "core API error"
		}
		return apperrors.Upstream(message, nil)
	}
}

// extractMessage pulls the human-readable message out of an error body.
// Validation errors arrive as an array; they are joined into one line.
func extractMessage(body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil || len(apiErr.Message) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(apiErr.Message, &single); err == nil {
		return single
	}

	var many []string
	if err := json.Unmarshal(apiErr.Message, &many); err == nil {
		return strings.Join(many, "; ")
	}

	return ""
}
