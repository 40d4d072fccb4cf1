package client

import (
	"encoding/json"
	"fmt"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"net/http"
)

// ApiError is returned for any response outside the 2xx range. Message is the message reported by the server,
// and Data is the rejected entity (with its "errors" objects) when the server returned one.
type ApiError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Data       json.RawMessage
}

func newApiError(method string, path string, statusCode int, body []byte) *ApiError {
	apiError := &ApiError{
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
	}

	errorResponse := gocd.ErrorResponse{}
	if err := json.Unmarshal(body, &errorResponse); err == nil {
		apiError.Message = errorResponse.Message
		apiError.Data = errorResponse.Data
	}

	if apiError.Message == "" {
		apiError.Message = http.StatusText(statusCode)
	}

	return apiError
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *ApiError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsPreconditionFailed is true when the ETag sent with an update no longer matches the server's copy.
func (e *ApiError) IsPreconditionFailed() bool {
	return e.StatusCode == http.StatusPreconditionFailed
}

func (e *ApiError) IsValidationError() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}

// DecodeData reads the rejected entity into target, which seeds the server errors of the models.
func (e *ApiError) DecodeData(target any) bool {
	if len(e.Data) == 0 {
		return false
	}

	return json.Unmarshal(e.Data, target) == nil
}

func isRetryable(err error) bool {
	if apiError, ok := err.(*ApiError); ok {
		return apiError.StatusCode >= http.StatusInternalServerError
	}

	return true
}
