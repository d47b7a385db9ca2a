package account

import (
	"fmt"
	"net/http"
)

// DomainError is a structured, self-describing domain error used across the
// account module. It carries HTTP/RFC7807-friendly metadata so a shared
// formatter can convert any domain error into a Problem response without
// enumerating error types.
type DomainError struct {
	// Code is a stable, machine-readable business code (e.g., "ErrInvalidOTP").
	Code string

	// HTTPStatus is the HTTP status suggested for this error.
	HTTPStatus int

	// Title is a short human summary; if empty the formatter will default to
	// StatusText(HTTPStatus).
	Title string

	// Message is a human-readable message primarily for logs. When Detail is
	// empty, this is used as the public detail.
	Message string

	// Detail is a user-friendly, safe explanation for clients.
	Detail string

	// TypeURI is an RFC7807 type URI, e.g., "urn:problem:account/err-invalid-otp".
	TypeURI string

	// Context is an optional extension payload for clients.
	Context any

	// cause is the underlying error that triggered this one, if any.
	cause error
}

// Error satisfies the standard Go error interface.
func (e *DomainError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap provides compatibility for Go's errors.Is and errors.As functions.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is enables errors.Is comparisons based on the stable Code rather than
// pointer identity, so copies created via WithCause match their sentinel
// counterpart.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a new instance of the DomainError, wrapping the provided cause.
func (e *DomainError) WithCause(err error) *DomainError {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

// WithDetail sets a public-friendly detail message for clients.
func (e *DomainError) WithDetail(detail string) *DomainError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// --- RFC7807 mapping accessors (satisfy httpx.DomainProblem) ---

func (e *DomainError) ProblemCode() string { return e.Code }
func (e *DomainError) ProblemStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}
func (e *DomainError) ProblemTitle() string { return e.Title }
func (e *DomainError) ProblemDetail() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}
func (e *DomainError) ProblemTypeURI() string { return e.TypeURI }
func (e *DomainError) ProblemContext() any    { return e.Context }

// --- Pre-defined Domain Errors ---

var (
	ErrNotFound = &DomainError{
		Code:       "ErrNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "account not found",
		TypeURI:    "urn:problem:account/err-not-found",
	}

	ErrUnauthorized = &DomainError{
		Code:       "ErrUnauthorized",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "invalid or expired token",
		TypeURI:    "urn:problem:account/err-unauthorized",
	}

	// Sign-in deliberately merges "no such account", "email not verified" and
	// "wrong password" behind this single error so callers cannot enumerate
	// accounts.
	ErrInvalidCredentials = &DomainError{
		Code:       "ErrInvalidCredentials",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "invalid email or password",
		TypeURI:    "urn:problem:account/err-invalid-credentials",
	}

	ErrInvalidEmail = &DomainError{
		Code:       "ErrInvalidEmail",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "please provide a valid email address",
		TypeURI:    "urn:problem:account/err-invalid-email",
	}

	ErrAlreadyVerified = &DomainError{
		Code:       "ErrAlreadyVerified",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "email already registered, please sign in",
		TypeURI:    "urn:problem:account/err-already-verified",
	}

	ErrAlreadyComplete = &DomainError{
		Code:       "ErrAlreadyComplete",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "profile is already completed",
		TypeURI:    "urn:problem:account/err-already-complete",
	}

	ErrInvalidOTP = &DomainError{
		Code:       "ErrInvalidOTP",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid or expired one-time code",
		TypeURI:    "urn:problem:account/err-invalid-otp",
	}

	ErrInvalidResetToken = &DomainError{
		Code:       "ErrInvalidResetToken",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "the provided token is invalid or has expired",
		TypeURI:    "urn:problem:account/err-invalid-reset-token",
	}

	ErrPasswordMismatch = &DomainError{
		Code:       "ErrPasswordMismatch",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "passwords do not match",
		TypeURI:    "urn:problem:account/err-password-mismatch",
	}

	ErrWeakPassword = &DomainError{
		Code:       "ErrWeakPassword",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "password must be at least 8 characters long",
		TypeURI:    "urn:problem:account/err-weak-password",
	}

	ErrInvalidUsername = &DomainError{
		Code:       "ErrInvalidUsername",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "username must be 3-30 characters of letters, numbers and underscores",
		TypeURI:    "urn:problem:account/err-invalid-username",
	}

	ErrResendTooSoon = &DomainError{
		Code:       "ErrResendTooSoon",
		HTTPStatus: http.StatusTooManyRequests,
		Title:      "Too Many Requests",
		Message:    "please wait before requesting another code",
		TypeURI:    "urn:problem:account/err-resend-too-soon",
	}

	// OAuth linking never auto-creates an account; an unknown identity is
	// directed to the registration flow instead.
	ErrNotRegistered = &DomainError{
		Code:       "ErrNotRegistered",
		HTTPStatus: http.StatusForbidden,
		Title:      "Forbidden",
		Message:    "no account for this identity, please register first",
		TypeURI:    "urn:problem:account/err-not-registered",
	}

	ErrEmailNotVerified = &DomainError{
		Code:       "ErrEmailNotVerified",
		HTTPStatus: http.StatusForbidden,
		Title:      "Forbidden",
		Message:    "email not verified",
		TypeURI:    "urn:problem:account/err-email-not-verified",
	}

	ErrUnsupportedOAuthProvider = &DomainError{
		Code:       "ErrUnsupportedOAuthProvider",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "unsupported oauth provider",
		TypeURI:    "urn:problem:account/err-unsupported-oauth-provider",
	}

	ErrOAuthStateInvalid = &DomainError{
		Code:       "ErrOAuthStateInvalid",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid or expired oauth state",
		TypeURI:    "urn:problem:account/err-oauth-state-invalid",
	}

	ErrOAuthExchangeFailed = &DomainError{
		Code:       "ErrOAuthExchangeFailed",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "oauth authentication failed",
		TypeURI:    "urn:problem:account/err-oauth-exchange-failed",
	}

	ErrDeliveryFailed = &DomainError{
		Code:       "ErrDeliveryFailed",
		HTTPStatus: http.StatusBadGateway,
		Title:      "Bad Gateway",
		Message:    "failed to send message, please try again later",
		TypeURI:    "urn:problem:account/err-delivery-failed",
	}

	ErrTokenIssuance = &DomainError{
		Code:       "ErrTokenIssuance",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "token issuance failed",
		TypeURI:    "urn:problem:account/err-token-issuance",
	}

	ErrInternal = &DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:account/err-internal",
	}
)
