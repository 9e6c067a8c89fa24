package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad input surfaced synchronously from
	// InitializeProject and Override.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks operations against entities or rows that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrExternalTool marks a remediation backend failure.
	ErrExternalTool = errors.New("external tool error")
	// ErrTransient marks failures worth retrying on a later tick.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while
// tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
