package engine

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError is the user-facing error raised by the evaluation core.
//
// Evaluation errors include:
//   - Locator not found: a coordinate addresses an unregistered name
//   - Multiple rules: more than one rule of a table is satisfied
//   - Invalid coordinate: coordinate text cannot be parsed
//   - Read-only locator: a write targets a constant, request or table locator
//   - Table recursion: a table's outcome depends on itself
//   - Steps exceeded: the episode exceeded its lookup quota
//
// EvaluationError is recoverable by the caller: nothing is retried and no
// partial result is returned.
type EvaluationError struct {
	// Code identifies the error category.
	Code EvaluationErrorCode

	// Message is a human-readable description.
	Message string

	// Table names the decision table being computed, if any.
	Table string

	// Details contains additional context.
	Details map[string]string
}

// EvaluationErrorCode categorizes evaluation errors.
type EvaluationErrorCode string

const (
	// ErrCodeLocatorNotFound indicates a coordinate addresses an unknown locator.
	ErrCodeLocatorNotFound EvaluationErrorCode = "LOCATOR_NOT_FOUND"

	// ErrCodeMultipleRules indicates more than one rule of a table is satisfied.
	ErrCodeMultipleRules EvaluationErrorCode = "MULTIPLE_RULES"

	// ErrCodeInvalidCoordinate indicates coordinate text cannot be parsed.
	ErrCodeInvalidCoordinate EvaluationErrorCode = "INVALID_COORDINATE"

	// ErrCodeReadOnlyLocator indicates a write to a locator that rejects writes.
	ErrCodeReadOnlyLocator EvaluationErrorCode = "READ_ONLY_LOCATOR"

	// ErrCodeTableRecursion indicates a table re-entered its own computation.
	ErrCodeTableRecursion EvaluationErrorCode = "TABLE_RECURSION"

	// ErrCodeStepsExceeded indicates the episode exceeded its lookup quota.
	ErrCodeStepsExceeded EvaluationErrorCode = "STEPS_EXCEEDED"

	// ErrCodeUnknownTarget indicates a name that is neither a table nor a command.
	ErrCodeUnknownTarget EvaluationErrorCode = "UNKNOWN_TARGET"
)

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: %s (table=%s)", e.Code, e.Message, e.Table)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NumberFormatError is returned when > or < compares a value that is not a
// decimal number. It is deliberately not an EvaluationError: tables are
// expected to guard numeric comparisons, so reaching this is a data or
// authoring error.
type NumberFormatError struct {
	Value string
	Err   error
}

// Error implements the error interface.
func (e *NumberFormatError) Error() string {
	return fmt.Sprintf("not a decimal number: %q", e.Value)
}

// Unwrap returns the parse error.
func (e *NumberFormatError) Unwrap() error {
	return e.Err
}

// IsEvaluationError returns true if err is (or wraps) an EvaluationError.
func IsEvaluationError(err error) bool {
	var ee *EvaluationError
	return errors.As(err, &ee)
}

// IsNumberFormatError returns true if err is (or wraps) a NumberFormatError.
func IsNumberFormatError(err error) bool {
	var ne *NumberFormatError
	return errors.As(err, &ne)
}

// HasCode returns true if err is an EvaluationError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code EvaluationErrorCode) bool {
	var ee *EvaluationError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// IsMultipleRulesError returns true if err reports more than one satisfied rule.
func IsMultipleRulesError(err error) bool {
	return HasCode(err, ErrCodeMultipleRules)
}

// IsLocatorNotFound returns true if err reports an unknown locator name.
func IsLocatorNotFound(err error) bool {
	return HasCode(err, ErrCodeLocatorNotFound)
}

// NewLocatorNotFoundError creates an EvaluationError for an unknown locator.
func NewLocatorNotFoundError(name string) *EvaluationError {
	return &EvaluationError{
		Code:    ErrCodeLocatorNotFound,
		Message: fmt.Sprintf("Locator '%s' not found", name),
		Details: map[string]string{"locator": name},
	}
}

// NewMultipleRulesError creates an EvaluationError for a table with more
// than one satisfied rule.
func NewMultipleRulesError(table string, rules []string) *EvaluationError {
	return &EvaluationError{
		Code:    ErrCodeMultipleRules,
		Message: "Multiple rules are satisfied",
		Table:   table,
		Details: map[string]string{"rules": strings.Join(rules, ",")},
	}
}

// NewInvalidCoordinateError creates an EvaluationError for unparseable
// coordinate text.
func NewInvalidCoordinateError(text, reason string) *EvaluationError {
	return &EvaluationError{
		Code:    ErrCodeInvalidCoordinate,
		Message: fmt.Sprintf("invalid coordinate %q: %s", text, reason),
		Details: map[string]string{"coordinate": text},
	}
}

// NewReadOnlyError creates an EvaluationError for a rejected write.
func NewReadOnlyError(locator, field string) *EvaluationError {
	return &EvaluationError{
		Code:    ErrCodeReadOnlyLocator,
		Message: fmt.Sprintf("locator '%s' is read-only (field %s)", locator, field),
		Details: map[string]string{"locator": locator, "field": field},
	}
}

// NewUnknownTargetError creates an EvaluationError for a name that is
// neither a table nor a command.
func NewUnknownTargetError(name string) *EvaluationError {
	return &EvaluationError{
		Code:    ErrCodeUnknownTarget,
		Message: fmt.Sprintf("no table or command named '%s'", name),
		Details: map[string]string{"name": name},
	}
}
