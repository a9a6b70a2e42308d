package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
)

// Límites de paginación del historial.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page parámetros de paginación por offset.
type Page struct {
	Limit  int
	Offset int
}

// MovementPage una página del historial; NextOffset es nil si no hay más.
type MovementPage struct {
	Items      []*entity.StockMovement
	Limit      int
	Offset     int
	NextOffset *int
}

// GetStockMovements historial de un producto, del más reciente al más antiguo.
func (l *Ledger) GetStockMovements(ctx context.Context, productID string, page Page) (*MovementPage, error) {
	if page.Limit == 0 {
		page.Limit = DefaultPageLimit
	}
	if page.Limit < 0 || page.Limit > MaxPageLimit {
		return nil, fmt.Errorf("%w: limit debe estar entre 1 y %d", domain.ErrValidation, MaxPageLimit)
	}
	if page.Offset < 0 {
		return nil, fmt.Errorf("%w: offset negativo", domain.ErrValidation)
	}
	product, err := l.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}

	// Se pide un registro extra para saber si existe otra página.
	items, err := l.repos.Movements.ListByProduct(ctx, productID, page.Limit+1, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &MovementPage{Limit: page.Limit, Offset: page.Offset}
	if len(items) > page.Limit {
		items = items[:page.Limit]
		next := page.Offset + page.Limit
		out.NextOffset = &next
	}
	if items == nil {
		items = []*entity.StockMovement{}
	}
	out.Items = items
	return out, nil
}

// GetLocationStock cantidades de todos los productos con fila en la ubicación, ordenadas por SKU.
func (l *Ledger) GetLocationStock(ctx context.Context, locationID string) ([]entity.LocationStockItem, error) {
	loc, err := l.repos.Locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, locationID)
	}
	items, err := l.repos.Stock.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	if items == nil {
		items = []entity.LocationStockItem{}
	}
	return items, nil
}

// Mismatch diferencia entre la proyección guardada y la reconstruida desde el ledger.
// LocationID vacío = cantidad agregada del producto.
type Mismatch struct {
	LocationID string
	Projected  int64
	Replayed   int64
}

// VerifyReport resultado de reconstruir un producto desde sus movimientos.
type VerifyReport struct {
	ProductID     string
	Movements     int
	Consistent    bool
	Aggregate     int64
	ByLocation    map[string]int64
	Mismatches    []Mismatch
	NegativeAfter []string // movimientos tras los cuales alguna ubicación quedó negativa
}

// VerifyProduct reproduce todos los movimientos del producto desde un estado vacío y compara
// el resultado con la proyección (por ubicación y agregada).
// Las tres lecturas ocurren en una transacción con la fila del producto bloqueada: ningún
// movimiento concurrente puede confirmarse entre el historial y la proyección.
func (l *Ledger) VerifyProduct(ctx context.Context, productID string) (*VerifyReport, error) {
	var (
		product   *entity.Product
		movements []*entity.StockMovement
		stocks    []*entity.ProductStock
	)
	err := l.Atomically(ctx, func(ctx context.Context, tx *Tx) error {
		var err error
		product, err = tx.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		if movements, err = tx.Movements.ListForReplay(ctx, productID); err != nil {
			return err
		}
		stocks, err = tx.Stock.ListByProduct(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	replayed := inventory.Replay(movements)
	report := &VerifyReport{
		ProductID:     productID,
		Movements:     len(movements),
		Aggregate:     product.AggregateQuantity,
		ByLocation:    make(map[string]int64, len(stocks)),
		NegativeAfter: replayed.NegativeAt,
	}

	seen := make(map[string]bool, len(stocks))
	for _, s := range stocks {
		seen[s.LocationID] = true
		report.ByLocation[s.LocationID] = s.Quantity
		if got := replayed.ByLocation[s.LocationID]; got != s.Quantity {
			report.Mismatches = append(report.Mismatches, Mismatch{LocationID: s.LocationID, Projected: s.Quantity, Replayed: got})
		}
	}
	for loc, qty := range replayed.ByLocation {
		if !seen[loc] && qty != 0 {
			report.Mismatches = append(report.Mismatches, Mismatch{LocationID: loc, Replayed: qty})
		}
	}
	if replayed.Aggregate != product.AggregateQuantity {
		report.Mismatches = append(report.Mismatches, Mismatch{Projected: product.AggregateQuantity, Replayed: replayed.Aggregate})
	}
	sort.Slice(report.Mismatches, func(i, j int) bool {
		return report.Mismatches[i].LocationID < report.Mismatches[j].LocationID
	})
	report.Consistent = len(report.Mismatches) == 0 && len(report.NegativeAfter) == 0
	return report, nil
}
