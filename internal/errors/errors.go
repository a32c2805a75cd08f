package errors

import (
	"errors"
	"net/http"
	"time"
)

var (
	// ErrUserExists is returned when the username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrBadCredentials is returned when username or password is incorrect.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrAccountExpired is returned when the account validity period has lapsed.
	ErrAccountExpired = errors.New("account expired")
	// ErrCodeInvalid is returned when the verification code does not match or has expired.
	ErrCodeInvalid = errors.New("code invalid or expired")
	// ErrVerificationRequired is returned when registration lacks the mandatory email+code pair.
	ErrVerificationRequired = errors.New("email verification required")
	// ErrInvalidToken covers missing, malformed, tampered, expired and revoked tokens alike.
	ErrInvalidToken = errors.New("no or invalid credential")
	// ErrUserNotFound is returned when the identity key resolves to no account.
	ErrUserNotFound = errors.New("user not found")
)

// Business response codes, stable across releases.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeUnauthorized = 40101
	CodeNotFound     = 40401
	CodeConflict     = 40901
	CodeInternal     = 50001
)

// Response is the uniform success envelope.
type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// OK wraps data in a success envelope.
func OK(data interface{}) Response {
	return Response{Code: CodeOK, Data: data, Message: "ok"}
}

// ErrorBody is the uniform failure envelope.
type ErrorBody struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
	Path      string      `json:"path"`
}

// NewErrorBody builds a failure envelope for the given request path.
func NewErrorBody(code int, message, path string) ErrorBody {
	return ErrorBody{
		Code:      code,
		Message:   message,
		Data:      nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      path,
	}
}

// HTTPError carries the HTTP status and business code for a domain error.
type HTTPError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// MapError maps a domain error to its HTTP representation. Unknown errors
// collapse to a generic 500 so internal detail never reaches the client.
func MapError(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserExists):
		return &HTTPError{StatusCode: http.StatusConflict, Code: CodeConflict, Message: err.Error()}
	case errors.Is(err, ErrBadCredentials),
		errors.Is(err, ErrAccountExpired),
		errors.Is(err, ErrCodeInvalid),
		errors.Is(err, ErrVerificationRequired),
		errors.Is(err, ErrInvalidToken):
		return &HTTPError{StatusCode: http.StatusUnauthorized, Code: CodeUnauthorized, Message: err.Error()}
	case errors.Is(err, ErrUserNotFound):
		return &HTTPError{StatusCode: http.StatusNotFound, Code: CodeNotFound, Message: err.Error()}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Code: CodeInternal, Message: "internal server error"}
	}
}
