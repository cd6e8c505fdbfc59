package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrValidation             = errors.New("entrada inválida")
	ErrInvalidStateTransition = errors.New("transición de estado no permitida")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrConcurrencyConflict    = errors.New("conflicto de concurrencia")
	ErrUnauthorized           = errors.New("no autorizado")
)

// Invariantes que una operación puede violar; viajan en Error.Invariant hasta el cliente.
const (
	InvariantNonNegative   = "quantity_non_negative"
	InvariantLedgerSum     = "record_equals_ledger_sum"
	InvariantChaining      = "before_after_chaining"
	InvariantSinglePosting = "single_posting_per_line"
	InvariantStateMachine  = "state_machine"
	InvariantInspection    = "inspection_within_received"
	InvariantCountOnce     = "count_recorded_once"
)

// Violation identifica la línea o clave concreta que falló.
type Violation struct {
	LineID string `json:"line_id,omitempty"`
	Key    string `json:"key,omitempty"`
	Detail string `json:"detail"`
}

// Error es el error estructurado que devuelven los motores.
// Err siempre es uno de los sentinels de este paquete, así errors.Is funciona con ellos.
type Error struct {
	Err        error
	Invariant  string
	Message    string
	Violations []Violation
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, v := range e.Violations {
		b.WriteString("; ")
		if v.LineID != "" {
			fmt.Fprintf(&b, "línea %s ", v.LineID)
		}
		if v.Key != "" {
			fmt.Fprintf(&b, "[%s] ", v.Key)
		}
		b.WriteString(v.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Validation construye un ErrValidation con mensaje y violaciones opcionales.
func Validation(msg string, violations ...Violation) *Error {
	return &Error{Err: ErrValidation, Message: msg, Violations: violations}
}

// InvalidTransition indica que la operación no es legal en el estado actual.
func InvalidTransition(msg string, violations ...Violation) *Error {
	return &Error{Err: ErrInvalidStateTransition, Invariant: InvariantStateMachine, Message: msg, Violations: violations}
}

// InsufficientStock agrupa todas las líneas que dejarían una clave en negativo.
func InsufficientStock(violations ...Violation) *Error {
	return &Error{Err: ErrInsufficientStock, Invariant: InvariantNonNegative, Message: "la cantidad resultante sería negativa", Violations: violations}
}

// ConcurrencyConflict es transitorio: reintentar la operación completa es seguro.
func ConcurrencyConflict(msg string) *Error {
	return &Error{Err: ErrConcurrencyConflict, Message: msg}
}

// NotFound indica un pedido, material, bodega o clave desconocida.
func NotFound(msg string) *Error {
	return &Error{Err: ErrNotFound, Message: msg}
}

// AsError extrae el *Error de una cadena de errores, si existe.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
