package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
)

// storeChecker contrato mínimo para verificar el almacén; lo cumple *pgxpool.Pool.
type storeChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler responde /health. Con checker nil (store en memoria) siempre está listo.
//
// Comportamiento:
//   - 200 → servicio y almacén disponibles.
//   - 503 Service Unavailable → el almacén no responde.
func HealthHandler(service string, checker storeChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
					Code:    "STORE_UNAVAILABLE",
					Message: "no se pudo contactar el almacén, intente más tarde",
				})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": service})
	}
}
