package release

import (
	"errors"
	"fmt"
)

// ErrNotarizationTimeout is returned when the notarization wait exceeds the
// caller-supplied timeout. Distinct from rejection: the remediation is to
// retry, not to rebuild.
var ErrNotarizationTimeout = errors.New("notarization wait timed out")

// ToolError reports a non-zero exit from an external signing or packaging tool.
// The failure aborts only the step that invoked the tool; the prior-stage
// artifact remains valid.
type ToolError struct {
	// Tool is the executable that failed.
	Tool string
	// Output is the combined stdout/stderr captured from the tool.
	Output string
	// Err is the underlying execution error.
	Err error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, e.Output)
	}

	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

// Unwrap exposes the underlying execution error.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// NotarizationRejectedError reports that the notary service refused the
// submission (invalid signature, entitlement violation). The remediation is
// fix-and-rebuild, never a blind retry.
type NotarizationRejectedError struct {
	// Reason is the status or log excerpt returned by the notary service.
	Reason string
}

// Error implements the error interface.
func (e *NotarizationRejectedError) Error() string {
	return fmt.Sprintf("notarization rejected: %s", e.Reason)
}
