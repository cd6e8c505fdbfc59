package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

// ErrorHandler responde los errores que no son de dominio (500) y los de Fiber (404 de ruta, 405...).
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
		}
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

// writeError traduce errores de dominio a HTTP. El resto se devuelve a Fiber.
func writeError(c *fiber.Ctx, err error) error {
	var status int
	var code string
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		status, code = fiber.StatusConflict, "INVALID_STATE"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		status, code = fiber.StatusConflict, "CONCURRENCY_CONFLICT"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	default:
		// lo registra y responde ErrorHandler
		return err
	}

	body := dto.ErrorResponse{Code: code, Message: err.Error()}
	if de, ok := domain.AsError(err); ok {
		body.Message = de.Message
		if body.Message == "" {
			body.Message = de.Err.Error()
		}
		body.Invariant = de.Invariant
		body.Violations = de.Violations
	}
	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// actorOr401 corta la petición si el middleware no dejó identidad.
func actorOr401(c *fiber.Ctx) (string, bool) {
	actor := GetActor(c)
	if actor == "" {
		_ = c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
		return "", false
	}
	return actor, true
}
