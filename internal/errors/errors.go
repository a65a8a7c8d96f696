package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries the internal error, its user-facing German message and
// routing metadata for the central handler.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewBackendError marks a failed call to the data service.
func NewBackendError(operation string, cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E100",
		Message:     fmt.Sprintf("backend %s failed: %s", operation, underlyingMsg),
		UserMessage: "Konnte keine Verbindung mit der Datenbank aufbauen, versuche es später nochmal.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewGeocodeError marks a failed reverse-geocoding lookup.
func NewGeocodeError(cause error) *AppError {
	return &AppError{
		Code:        "E200",
		Message:     "reverse geocoding failed",
		UserMessage: "Konnte deinen Standort nicht zuordnen, bitte gib deine Adresse manuell ein.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewTransportError marks a failed Telegram send attempt.
func NewTransportError(cause error, retryable bool) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:      "E300",
		Message:   fmt.Sprintf("telegram send failed: %s", underlyingMsg),
		Severity:  SeverityMedium,
		Retryable: retryable,
		cause:     cause,
	}
}

// NewProtocolError marks a violated dialogue contract, e.g. a session key that
// an earlier state should have written but did not. Never retryable: the
// session is terminated instead of guessing intent.
func NewProtocolError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "Da ist etwas schiefgelaufen, bitte beginne von vorne.",
		Severity:    SeverityHigh,
		Retryable:   false,
		cause:       nil,
	}
}

// NewRateLimitError marks an event dropped by admission control.
func NewRateLimitError(chatID int64) *AppError {
	return &AppError{
		Code:      "E500",
		Message:   fmt.Sprintf("admission limit exceeded for chat %d", chatID),
		Severity:  SeverityLow,
		Retryable: false,
		cause:     nil,
	}
}
