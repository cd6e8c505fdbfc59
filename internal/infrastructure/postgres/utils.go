package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// mapTxError traduce los errores transitorios de PostgreSQL a ConcurrencyConflict.
// Cualquier otro error se devuelve sin tocar.
func mapTxError(err error) error {
	switch pgCode(err) {
	case codeLockNotAvailable:
		return domain.ConcurrencyConflict("claves de inventario ocupadas (lock_timeout), reintente")
	case codeSerializationFailure, codeDeadlockDetected:
		return domain.ConcurrencyConflict("conflicto de serialización, reintente")
	case codeUniqueViolation:
		return &domain.Error{Err: domain.ErrConcurrencyConflict, Invariant: domain.InvariantSinglePosting, Message: "la línea fue posteada por otra operación"}
	case codeCheckViolation:
		return &domain.Error{Err: domain.ErrInsufficientStock, Invariant: domain.InvariantNonNegative, Message: "la cantidad resultante sería negativa"}
	}
	return err
}
