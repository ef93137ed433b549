package apperror

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

const (
	CodeInvalidInput                = "invalid_input"
	CodeDuplicateSubscription       = "duplicate_subscription"
	CodeNotFound                    = "not_found"
	CodeInvalidStateForCancellation = "invalid_state_for_cancellation"
	CodeAlreadyCanceled             = "already_canceled"
	CodeAlreadyFinal                = "already_final"
	CodeBelowMinimum                = "below_minimum"
	CodeInsufficientFunds           = "insufficient_funds"
	CodeMissingPayoutKey            = "missing_payout_key"
	CodeGatewayFailure              = "gateway_failure"
	CodeSystem                      = "system_error"
)

var (
	ErrInvalidInput                = newSentinel(CodeInvalidInput, "invalid input")
	ErrDuplicateSubscription       = newSentinel(CodeDuplicateSubscription, "participant already has an open subscription for this service")
	ErrNotFound                    = newSentinel(CodeNotFound, "resource not found")
	ErrInvalidStateForCancellation = newSentinel(CodeInvalidStateForCancellation, "subscription cannot be canceled in its current state")
	ErrAlreadyCanceled             = newSentinel(CodeAlreadyCanceled, "subscription is already canceled or scheduled for cancellation")
	ErrAlreadyFinal                = newSentinel(CodeAlreadyFinal, "subscription cancellation is final")
	ErrBelowMinimum                = newSentinel(CodeBelowMinimum, "amount is below the minimum withdrawal")
	ErrInsufficientFunds           = newSentinel(CodeInsufficientFunds, "insufficient available balance")
	ErrMissingPayoutKey            = newSentinel(CodeMissingPayoutKey, "payout key is required")
	ErrGatewayFailure              = newSentinel(CodeGatewayFailure, "payment gateway call failed")
	ErrSystem                      = newSentinel(CodeSystem, "system error")

	statusCodeMap = map[error]int{
		ErrInvalidInput:                http.StatusBadRequest,
		ErrDuplicateSubscription:       http.StatusConflict,
		ErrNotFound:                    http.StatusNotFound,
		ErrInvalidStateForCancellation: http.StatusConflict,
		ErrAlreadyCanceled:             http.StatusConflict,
		ErrAlreadyFinal:                http.StatusConflict,
		ErrBelowMinimum:                http.StatusUnprocessableEntity,
		ErrInsufficientFunds:           http.StatusUnprocessableEntity,
		ErrMissingPayoutKey:            http.StatusUnprocessableEntity,
		ErrGatewayFailure:              http.StatusBadGateway,
		ErrSystem:                      http.StatusInternalServerError,
	}
)

// InternalError is a sentinel of the taxonomy. Two InternalErrors match when
// their codes match.
type InternalError struct {
	Code    string
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Is(target error) bool {
	t, ok := target.(*InternalError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newSentinel(code, message string) *InternalError {
	return &InternalError{Code: code, Message: message}
}

// Builder chains context onto an error. Mark must be the last call.
type Builder struct {
	err error
}

func NewError(msg string) *Builder {
	return &Builder{err: errors.New(msg)}
}

func NewErrorf(format string, args ...any) *Builder {
	return &Builder{err: errors.Newf(format, args...)}
}

func WithError(err error) *Builder {
	return &Builder{err: err}
}

func (b *Builder) WithMessage(msg string) *Builder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint attaches a message meant for API consumers.
func (b *Builder) WithHint(hint string) *Builder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *Builder) WithHintf(format string, args ...any) *Builder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

func (b *Builder) WithReportableDetails(details map[string]any) *Builder {
	marshaled, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, "__json__:%s", errors.Safe(string(marshaled)))
	return b
}

func (b *Builder) Mark(reference error) error {
	b.err = errors.Mark(b.err, reference)
	return b.err
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// Code returns the taxonomy code of err, or CodeSystem when it is unmarked.
func Code(err error) string {
	for sentinel := range statusCodeMap {
		if errors.Is(err, sentinel) {
			return sentinel.(*InternalError).Code
		}
	}
	return CodeSystem
}

// Hint returns the first user-facing hint attached to err, falling back to
// the sentinel message.
func Hint(err error) string {
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[0]
	}
	for sentinel := range statusCodeMap {
		if errors.Is(err, sentinel) {
			return sentinel.(*InternalError).Message
		}
	}
	return "internal server error"
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
