package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrBusinessRule = errors.New("business rule violated")

	ErrAlreadyExists = errors.New("resource already exists")

	ErrDatabase = errors.New("database error")

	ErrUnauthorized = errors.New("unauthorized")
)

// Kind classifies an error for the HTTP layer.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindBusinessRule
	KindInvalidArgument
	// KindValidation is field-level input rejection, reported with campos.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBusinessRule:
		return "business_rule"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound reports a missing entity. The message is shown to API clients.
func NotFound(message string) error {
	return &AppError{Kind: KindNotFound, Code: "NOT_FOUND", Message: message, Cause: ErrNotFound}
}

// BusinessRule reports a violated domain rule. The message is shown to API clients.
func BusinessRule(message string) error {
	return &AppError{Kind: KindBusinessRule, Code: "BUSINESS_RULE", Message: message, Cause: ErrBusinessRule}
}

func InvalidArgument(message string) error {
	return &AppError{Kind: KindInvalidArgument, Code: "INVALID_ARGUMENT", Message: message, Cause: ErrInvalidArgument}
}

// WrapDatabaseError keeps both ErrDatabase and cause in the chain. The
// message is for logs only and never reaches API clients.
func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}

// KindOf walks the error chain and returns the first classification found.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindUnknown {
		return appErr.Kind
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBusinessRule), errors.Is(err, ErrAlreadyExists):
		return KindBusinessRule
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	default:
		return KindUnknown
	}
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindUnknown {
		return appErr.Message
	}

	return err.Error()
}
