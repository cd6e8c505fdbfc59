package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// Auditor reproduce el ledger completo y contrasta cada registro con la suma de sus deltas.
// El resultado es exacto cuando no hay posteos concurrentes con la auditoría.
type Auditor struct {
	store repository.LedgerStore
}

func NewAuditor(store repository.LedgerStore) *Auditor {
	return &Auditor{store: store}
}

// Audit verifica registro = suma de deltas, cantidades no negativas, encadenamiento
// antes/después y una sola transacción por referencia de línea.
func (a *Auditor) Audit(ctx context.Context) (*dto.AuditResponse, error) {
	records, err := a.store.Snapshot(ctx, entity.InventoryFilter{})
	if err != nil {
		return nil, fmt.Errorf("snapshot de inventario: %w", err)
	}
	txs, err := a.store.AllTransactions(ctx, entity.TimeRange{})
	if err != nil {
		return nil, fmt.Errorf("leer ledger: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Seq < txs[j].Seq })

	findings := make([]dto.AuditFindingDTO, 0)
	add := func(invariant, key, format string, args ...any) {
		findings = append(findings, dto.AuditFindingDTO{Invariant: invariant, Key: key, Detail: fmt.Sprintf(format, args...)})
	}

	running := make(map[string]decimal.Decimal)
	refs := make(map[string]string)
	for _, tx := range txs {
		k := tx.Key.String()
		prev := running[k]
		if !tx.BeforeQuantity.Equal(prev) {
			add(domain.InvariantChaining, k, "tx %d: before %s, esperado %s", tx.Seq, tx.BeforeQuantity, prev)
		}
		if !tx.BeforeQuantity.Add(tx.Delta).Equal(tx.AfterQuantity) {
			add(domain.InvariantChaining, k, "tx %d: before %s + delta %s != after %s", tx.Seq, tx.BeforeQuantity, tx.Delta, tx.AfterQuantity)
		}
		if tx.AfterQuantity.IsNegative() {
			add(domain.InvariantNonNegative, k, "tx %d deja la clave en %s", tx.Seq, tx.AfterQuantity)
		}
		running[k] = prev.Add(tx.Delta)
		if tx.LineRef != "" {
			if first, dup := refs[tx.LineRef]; dup {
				add(domain.InvariantSinglePosting, k, "línea %s posteada en %s y %s", tx.LineRef, first, tx.ID)
			}
			refs[tx.LineRef] = tx.ID
		}
	}

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		k := r.Key.String()
		seen[k] = struct{}{}
		if r.Quantity.IsNegative() {
			add(domain.InvariantNonNegative, k, "cantidad %s", r.Quantity)
		}
		if sum := running[k]; !sum.Equal(r.Quantity) {
			add(domain.InvariantLedgerSum, k, "registro %s, suma del ledger %s", r.Quantity, sum)
		}
	}
	for k, sum := range running {
		if _, ok := seen[k]; !ok {
			add(domain.InvariantLedgerSum, k, "transacciones sin registro (suma %s)", sum)
		}
	}

	return &dto.AuditResponse{
		Keys:         len(records),
		Transactions: len(txs),
		Consistent:   len(findings) == 0,
		Findings:     findings,
	}, nil
}
