package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidScheme      = "INVALID_SCHEME"
	ErrCodeNoHostname         = "NO_HOSTNAME"
	ErrCodeUnresolvableHost   = "UNRESOLVABLE_HOST"
	ErrCodePrivateAddress     = "PRIVATE_ADDRESS"
	ErrCodeDNSFailure         = "DNS_FAILURE"
	ErrCodeConnectionRefused  = "CONNECTION_REFUSED"
	ErrCodeEmptyResponse      = "EMPTY_RESPONSE"
	ErrCodeDownloadRejected   = "DOWNLOAD_REJECTED"
	ErrCodeNavTimeout         = "NAVIGATION_TIMEOUT"
	ErrCodeLoadFailed         = "LOAD_FAILED"
	ErrCodeNonHTMLContent     = "NON_HTML_CONTENT"
	ErrCodeScreenshotTooLarge = "SCREENSHOT_TOO_LARGE"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FetchError is the internal error type carrying an error code.
// Message holds the caller-visible text verbatim; tool and API boundaries
// surface it without the code prefix. Supports error wrapping via Unwrap.
type FetchError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(code, message string, err error) *FetchError {
	return &FetchError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *FetchError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
