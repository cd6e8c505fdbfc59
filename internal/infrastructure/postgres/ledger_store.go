package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.LedgerStore = (*LedgerStore)(nil)

// LedgerStore Inventory Store + Ledger sobre PostgreSQL.
// Cada lote bloquea sus filas con SELECT ... FOR UPDATE en orden canónico de clave,
// y el índice único sobre line_ref impide postear dos veces la misma línea.
type LedgerStore struct {
	pool *pgxpool.Pool
	tx   *TxRunner
}

// NewLedgerStore construye el store. lockTimeout acota la espera por filas bloqueadas.
func NewLedgerStore(pool *pgxpool.Pool, lockTimeout time.Duration) *LedgerStore {
	return &LedgerStore{pool: pool, tx: NewTxRunner(pool, lockTimeout)}
}

const txColumns = `seq, id::text, material_code, warehouse_id, location_code, batch_id, direction, kind,
	delta, before_quantity, after_quantity, related_order_id, line_ref, actor, created_at`

func (s *LedgerStore) Get(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error) {
	rec := entity.InventoryRecord{Key: key}
	err := s.pool.QueryRow(ctx, `
		SELECT quantity, last_updated FROM inventory_records
		WHERE material_code = $1 AND warehouse_id = $2 AND location_code = $3 AND batch_id = $4`,
		key.MaterialCode, key.WarehouseID, key.LocationCode, key.BatchID,
	).Scan(&rec.Quantity, &rec.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			rec.Quantity = decimal.Zero
			return &rec, nil
		}
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	return &rec, nil
}

func (s *LedgerStore) ApplyDelta(ctx context.Context, posting entity.Posting) (*entity.LedgerTransaction, error) {
	txs, err := s.ApplyBatch(ctx, []entity.Posting{posting})
	if err != nil {
		return nil, err
	}
	return &txs[0], nil
}

// ApplyBatch postea todo el lote en una transacción o nada.
func (s *LedgerStore) ApplyBatch(ctx context.Context, postings []entity.Posting) ([]entity.LedgerTransaction, error) {
	if err := inventory.ValidatePostings(postings); err != nil {
		return nil, err
	}

	var out []entity.LedgerTransaction
	err := s.tx.Run(ctx, func(tx pgx.Tx) error {
		keys := canonicalKeys(postings)
		for _, k := range keys {
			if _, err := tx.Exec(ctx, `
				INSERT INTO inventory_records (material_code, warehouse_id, location_code, batch_id, quantity)
				VALUES ($1, $2, $3, $4, 0)
				ON CONFLICT DO NOTHING`,
				k.MaterialCode, k.WarehouseID, k.LocationCode, k.BatchID); err != nil {
				return fmt.Errorf("crear registro: %w", err)
			}
		}
		current := make(map[entity.InventoryKey]decimal.Decimal, len(keys))
		for _, k := range keys {
			var q decimal.Decimal
			if err := tx.QueryRow(ctx, `
				SELECT quantity FROM inventory_records
				WHERE material_code = $1 AND warehouse_id = $2 AND location_code = $3 AND batch_id = $4
				FOR UPDATE`,
				k.MaterialCode, k.WarehouseID, k.LocationCode, k.BatchID).Scan(&q); err != nil {
				return fmt.Errorf("bloquear registro: %w", err)
			}
			current[k] = q
		}

		// Con las filas bloqueadas, un reintento concurrente del mismo lote ya es visible.
		replayed, done, err := replay(ctx, tx, postings)
		if err != nil {
			return err
		}
		if done {
			out = replayed
			return nil
		}

		var violations []domain.Violation
		befores := make([]decimal.Decimal, len(postings))
		for i, p := range postings {
			before := current[p.Key]
			after := before.Add(p.Delta)
			if after.IsNegative() {
				violations = append(violations, domain.Violation{
					LineID: p.LineRef,
					Key:    p.Key.String(),
					Detail: fmt.Sprintf("disponible %s, solicitado %s", before.String(), p.Delta.Neg().String()),
				})
			}
			befores[i] = before
			current[p.Key] = after
		}
		if len(violations) > 0 {
			return domain.InsufficientStock(violations...)
		}

		now := time.Now().UTC()
		out = make([]entity.LedgerTransaction, len(postings))
		for i, p := range postings {
			t := entity.LedgerTransaction{
				ID:             uuid.New().String(),
				Key:            p.Key,
				Direction:      p.Direction(),
				Kind:           p.Kind,
				Delta:          p.Delta,
				BeforeQuantity: befores[i],
				AfterQuantity:  befores[i].Add(p.Delta),
				RelatedOrderID: p.RelatedOrderID,
				LineRef:        p.LineRef,
				Actor:          p.Actor,
				CreatedAt:      now,
			}
			if err := tx.QueryRow(ctx, `
				INSERT INTO ledger_transactions (id, material_code, warehouse_id, location_code, batch_id, direction, kind,
					delta, before_quantity, after_quantity, related_order_id, line_ref, actor, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
				RETURNING seq`,
				t.ID, p.Key.MaterialCode, p.Key.WarehouseID, p.Key.LocationCode, p.Key.BatchID, t.Direction, t.Kind,
				t.Delta, t.BeforeQuantity, t.AfterQuantity, t.RelatedOrderID, t.LineRef, t.Actor, t.CreatedAt,
			).Scan(&t.Seq); err != nil {
				return fmt.Errorf("insertar transacción: %w", err)
			}
			if _, err := tx.Exec(ctx, `
				UPDATE inventory_records SET quantity = $5, last_updated = $6
				WHERE material_code = $1 AND warehouse_id = $2 AND location_code = $3 AND batch_id = $4`,
				p.Key.MaterialCode, p.Key.WarehouseID, p.Key.LocationCode, p.Key.BatchID, t.AfterQuantity, now); err != nil {
				return fmt.Errorf("actualizar registro: %w", err)
			}
			out[i] = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// replay: todas las line_ref ya posteadas -> transacciones originales; algunas -> conflicto.
func replay(ctx context.Context, q Querier, postings []entity.Posting) ([]entity.LedgerTransaction, bool, error) {
	refs := make([]string, 0, len(postings))
	for _, p := range postings {
		if p.LineRef != "" {
			refs = append(refs, p.LineRef)
		}
	}
	if len(refs) == 0 {
		return nil, false, nil
	}
	rows, err := q.Query(ctx, `SELECT `+txColumns+` FROM ledger_transactions WHERE line_ref = ANY($1)`, refs)
	if err != nil {
		return nil, false, fmt.Errorf("buscar líneas posteadas: %w", err)
	}
	found, err := scanTransactions(rows)
	if err != nil {
		return nil, false, err
	}
	switch {
	case len(found) == 0:
		return nil, false, nil
	case len(found) == len(postings):
		byRef := make(map[string]entity.LedgerTransaction, len(found))
		for _, t := range found {
			byRef[t.LineRef] = t
		}
		ordered := make([]entity.LedgerTransaction, len(postings))
		for i, p := range postings {
			ordered[i] = byRef[p.LineRef]
		}
		return ordered, true, nil
	}
	violations := make([]domain.Violation, 0, len(found))
	for _, t := range found {
		violations = append(violations, domain.Violation{LineID: t.LineRef, Key: t.Key.String(), Detail: "línea ya posteada"})
	}
	return nil, false, &domain.Error{
		Err:        domain.ErrConcurrencyConflict,
		Invariant:  domain.InvariantSinglePosting,
		Message:    "el lote mezcla líneas ya posteadas con líneas nuevas",
		Violations: violations,
	}
}

func (s *LedgerStore) Snapshot(ctx context.Context, filter entity.InventoryFilter) ([]entity.InventoryRecord, error) {
	where, args := filterClause(filter)
	rows, err := s.pool.Query(ctx, `
		SELECT material_code, warehouse_id, location_code, batch_id, quantity, last_updated
		FROM inventory_records`+where+`
		ORDER BY material_code, warehouse_id, location_code, batch_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer rows.Close()
	var out []entity.InventoryRecord
	for rows.Next() {
		var r entity.InventoryRecord
		if err := rows.Scan(&r.Key.MaterialCode, &r.Key.WarehouseID, &r.Key.LocationCode, &r.Key.BatchID, &r.Quantity, &r.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan registro: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *LedgerStore) Transactions(ctx context.Context, key entity.InventoryKey, r entity.TimeRange) ([]entity.LedgerTransaction, error) {
	args := []any{key.MaterialCode, key.WarehouseID, key.LocationCode, key.BatchID}
	where := ` WHERE material_code = $1 AND warehouse_id = $2 AND location_code = $3 AND batch_id = $4`
	where, args = rangeClause(where, args, r)
	rows, err := s.pool.Query(ctx, `SELECT `+txColumns+` FROM ledger_transactions`+where+` ORDER BY seq`+limitClause(r), args...)
	if err != nil {
		return nil, fmt.Errorf("transacciones por clave: %w", err)
	}
	return scanTransactions(rows)
}

func (s *LedgerStore) AllTransactions(ctx context.Context, r entity.TimeRange) ([]entity.LedgerTransaction, error) {
	where, args := rangeClause("", nil, r)
	rows, err := s.pool.Query(ctx, `SELECT `+txColumns+` FROM ledger_transactions`+where+` ORDER BY seq`+limitClause(r), args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]entity.LedgerTransaction, error) {
	defer rows.Close()
	var out []entity.LedgerTransaction
	for rows.Next() {
		var t entity.LedgerTransaction
		if err := rows.Scan(&t.Seq, &t.ID, &t.Key.MaterialCode, &t.Key.WarehouseID, &t.Key.LocationCode, &t.Key.BatchID,
			&t.Direction, &t.Kind, &t.Delta, &t.BeforeQuantity, &t.AfterQuantity, &t.RelatedOrderID, &t.LineRef, &t.Actor, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transacción: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func canonicalKeys(postings []entity.Posting) []entity.InventoryKey {
	seen := make(map[entity.InventoryKey]struct{}, len(postings))
	for _, p := range postings {
		seen[p.Key] = struct{}{}
	}
	keys := make([]entity.InventoryKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

func filterClause(f entity.InventoryFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.BatchID != "" {
		add("batch_id = $%d", f.BatchID)
	}
	if len(f.MaterialCodes) > 0 {
		add("material_code = ANY($%d)", f.MaterialCodes)
	}
	if len(f.LocationCodes) > 0 {
		add("location_code = ANY($%d)", f.LocationCodes)
	}
	if len(conds) == 0 {
		return "", nil
	}
	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}

func rangeClause(where string, args []any, r entity.TimeRange) (string, []any) {
	join := func() string {
		if where == "" {
			return " WHERE "
		}
		return " AND "
	}
	if r.From != nil {
		args = append(args, *r.From)
		where += join() + fmt.Sprintf("created_at >= $%d", len(args))
	}
	if r.To != nil {
		args = append(args, *r.To)
		where += join() + fmt.Sprintf("created_at <= $%d", len(args))
	}
	return where, args
}

func limitClause(r entity.TimeRange) string {
	if r.Limit > 0 {
		return fmt.Sprintf(" LIMIT %d", r.Limit)
	}
	return ""
}
