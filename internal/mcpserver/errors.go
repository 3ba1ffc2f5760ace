package mcpserver

import (
	"errors"
	"fmt"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
)

// ToolError is the uniform error shape returned inside a tool's envelope:
// a machine-readable code and a human message, no stack trace.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// mapError converts any error into a ToolError. Domain errors keep their
// stable code; everything else maps to a generic internal code so a raw
// Go error string never leaks into the tool envelope.
func mapError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var domainErr *errs.Error
	if errors.As(err, &domainErr) {
		return &ToolError{Code: domainErr.Code, Message: domainErr.Message}
	}
	return &ToolError{Code: "INTERNAL_ERROR", Message: "internal server error"}
}
