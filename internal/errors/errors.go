package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies crop failures
type ErrorCode string

const (
	// Rejected before any work starts
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"

	// Rendering, reading or writing failed; the whole operation is aborted
	ErrorBackendFailure ErrorCode = "BACKEND_FAILURE"

	// A crop left no area; recovered by drawing at scale 1
	ErrorDegenerateCrop ErrorCode = "DEGENERATE_CROP"
)

// NoPage is the Page value of errors not tied to a page
const NoPage = -1

// CropError is a structured crop error
type CropError struct {
	Code    ErrorCode
	Message string
	// Page is the 0-based page index, or NoPage.
	Page  int
	Cause error
}

func (e *CropError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Page != NoPage {
		msg = fmt.Sprintf("%s: page %d: %s", e.Code, e.Page+1, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

func (e *CropError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewInvalidInput(format string, args ...interface{}) *CropError {
	return &CropError{
		Code:    ErrorInvalidInput,
		Message: fmt.Sprintf(format, args...),
		Page:    NoPage,
	}
}

func NewBackendFailure(page int, op string, cause error) *CropError {
	return &CropError{
		Code:    ErrorBackendFailure,
		Message: fmt.Sprintf("%s failed", op),
		Page:    page,
		Cause:   cause,
	}
}

func NewDegenerateCrop(page int) *CropError {
	return &CropError{
		Code:    ErrorDegenerateCrop,
		Message: "cropped region has no area, page drawn at scale 1",
		Page:    page,
	}
}

// IsCode reports whether any error in err's chain is a CropError with code
func IsCode(err error, code ErrorCode) bool {
	var ce *CropError
	return stderrors.As(err, &ce) && ce.Code == code
}

// PageOf returns the page index carried by err, or NoPage
func PageOf(err error) int {
	var ce *CropError
	if stderrors.As(err, &ce) {
		return ce.Page
	}
	return NoPage
}
