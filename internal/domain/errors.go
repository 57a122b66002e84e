package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the integration core.

// Violation is a single field-level validation problem.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrValidation carries the complete list of payload violations found in one
// pass, so the caller can surface all problems at once.
type ErrValidation struct {
	Violations []Violation
}

func (e *ErrValidation) Error() string {
	if len(e.Violations) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// NewValidationError builds an ErrValidation with a single violation.
func NewValidationError(field, message string) *ErrValidation {
	return &ErrValidation{Violations: []Violation{{Field: field, Message: message}}}
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrConflict indicates a uniqueness violation (duplicate Nosso/Seu Número,
// stale version on concurrent update). The caller must regenerate the
// identifier or reload the row; the operation is never retried blindly.
type ErrConflict struct {
	Resource string
	Key      string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Key)
}

// ErrIncompleteCustomer lists exactly which billing fields the customer is
// missing. Bank submission must not be attempted.
type ErrIncompleteCustomer struct {
	CustomerID    string
	MissingFields []string
}

func (e *ErrIncompleteCustomer) Error() string {
	return fmt.Sprintf("customer %s missing billing fields: %s", e.CustomerID, strings.Join(e.MissingFields, ", "))
}

// ErrSequenceExhausted is fatal for the (account, agreement) key: the next
// increment would exceed the 10-digit field. Requires a new agreement/range.
type ErrSequenceExhausted struct {
	AccountID string
	Agreement string
	Last      uint64
}

func (e *ErrSequenceExhausted) Error() string {
	return fmt.Sprintf("sequence exhausted for account=%s convenio=%s (last=%d)", e.AccountID, e.Agreement, e.Last)
}

// ErrFormat indicates an identifier could not be built within the bank's
// fixed-width rules.
type ErrFormat struct {
	Field  string
	Reason string
}

func (e *ErrFormat) Error() string {
	return fmt.Sprintf("format error on %s: %s", e.Field, e.Reason)
}

// ErrTerminalState indicates an operation on a boleto whose status is a sink
// (BAIXADO, PAGO, CANCELADO).
type ErrTerminalState struct {
	BoletoID string
	Status   BoletoStatus
	Action   string
}

func (e *ErrTerminalState) Error() string {
	return fmt.Sprintf("cannot %s boleto %s in terminal status %s", e.Action, e.BoletoID, e.Status)
}

// ErrBankTransport indicates a network-level failure talking to the bank.
// Retryable only for read-only/idempotent operations.
type ErrBankTransport struct {
	Operation string
	Err       error
}

func (e *ErrBankTransport) Error() string {
	return fmt.Sprintf("bank transport error [%s]: %v", e.Operation, e.Err)
}

func (e *ErrBankTransport) Unwrap() error {
	return e.Err
}

// ErrAmbiguousOutcome signals the request may or may not have been delivered
// (timeout after send on a non-idempotent operation). Do not retry blindly:
// reconcile state first. Carries the identifier needed for reconciliation.
type ErrAmbiguousOutcome struct {
	Operation string
	Reference string
	Err       error
}

func (e *ErrAmbiguousOutcome) Error() string {
	return fmt.Sprintf("ambiguous outcome [%s ref=%s]: query status before retrying: %v", e.Operation, e.Reference, e.Err)
}

func (e *ErrAmbiguousOutcome) Unwrap() error {
	return e.Err
}

// ErrBankRejected indicates the bank accepted the transport but refused the
// request (4xx with a structured body).
type ErrBankRejected struct {
	Operation string
	Status    int
	Code      string
	Message   string
}

func (e *ErrBankRejected) Error() string {
	return fmt.Sprintf("bank rejected %s: status=%d code=%s %s", e.Operation, e.Status, e.Code, e.Message)
}

// ErrCircuitOpen indicates the circuit breaker is open for the bank channel.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrCertificate indicates a client certificate could not be loaded or parsed.
type ErrCertificate struct {
	Familia string
	Path    string
	Err     error
}

func (e *ErrCertificate) Error() string {
	return fmt.Sprintf("certificate error [%s] %s: %v", e.Familia, e.Path, e.Err)
}

func (e *ErrCertificate) Unwrap() error {
	return e.Err
}
