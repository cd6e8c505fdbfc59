package postgres

import (
	"context"
	"fmt"
)

// schemaStatements crea el esquema si no existe. Idempotente: se ejecuta en cada arranque.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS materials (
		code                TEXT PRIMARY KEY,
		id                  TEXT NOT NULL DEFAULT '',
		name                TEXT NOT NULL,
		specification       TEXT NOT NULL DEFAULT '',
		unit                TEXT NOT NULL DEFAULT '',
		category            TEXT NOT NULL DEFAULT '',
		safety_stock        NUMERIC(20,6) NOT NULL DEFAULT 0,
		inspection_required BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS warehouses (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		locations TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_records (
		material_code TEXT NOT NULL,
		warehouse_id  TEXT NOT NULL,
		location_code TEXT NOT NULL,
		batch_id      TEXT NOT NULL,
		quantity      NUMERIC(20,6) NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		last_updated  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (material_code, warehouse_id, location_code, batch_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_transactions (
		seq              BIGSERIAL PRIMARY KEY,
		id               UUID NOT NULL UNIQUE,
		material_code    TEXT NOT NULL,
		warehouse_id     TEXT NOT NULL,
		location_code    TEXT NOT NULL,
		batch_id         TEXT NOT NULL,
		direction        TEXT NOT NULL,
		kind             TEXT NOT NULL,
		delta            NUMERIC(20,6) NOT NULL CHECK (delta <> 0),
		before_quantity  NUMERIC(20,6) NOT NULL,
		after_quantity   NUMERIC(20,6) NOT NULL CHECK (after_quantity >= 0),
		related_order_id TEXT NOT NULL DEFAULT '',
		line_ref         TEXT NOT NULL DEFAULT '',
		actor            TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ledger_transactions_line_ref_uq
		ON ledger_transactions (line_ref) WHERE line_ref <> ''`,
	`CREATE INDEX IF NOT EXISTS ledger_transactions_key_idx
		ON ledger_transactions (material_code, warehouse_id, location_code, batch_id, seq)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		code         TEXT NOT NULL UNIQUE,
		direction    TEXT NOT NULL,
		status       TEXT NOT NULL,
		warehouse_id TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		doc          JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_list_idx ON orders (direction, status, warehouse_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS stock_checks (
		id           TEXT PRIMARY KEY,
		code         TEXT NOT NULL UNIQUE,
		status       TEXT NOT NULL,
		warehouse_id TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		doc          JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS code_sequences (
		scope TEXT PRIMARY KEY,
		last  INTEGER NOT NULL
	)`,
}

// EnsureSchema aplica el esquema del ledger.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("aplicar esquema: %w", err)
		}
	}
	return nil
}

// nextCode incrementa el contador diario PREFIJO-YYYYMMDD y devuelve PREFIJO-YYYYMMDD-NNN.
func nextCode(ctx context.Context, q Querier, prefix, day string) (string, error) {
	scope := prefix + "-" + day
	var n int
	err := q.QueryRow(ctx, `
		INSERT INTO code_sequences (scope, last) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET last = code_sequences.last + 1
		RETURNING last`, scope).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("siguiente código %s: %w", scope, err)
	}
	return fmt.Sprintf("%s-%03d", scope, n), nil
}
