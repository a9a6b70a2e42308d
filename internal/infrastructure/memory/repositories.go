package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// Todas las lecturas devuelven copias: el llamador puede modificarlas sin tocar el estado.

var (
	_ repository.ProductRepository       = (*productRepo)(nil)
	_ repository.LocationRepository      = (*locationRepo)(nil)
	_ repository.ProductStockRepository  = (*stockRepo)(nil)
	_ repository.StockMovementRepository = (*movementRepo)(nil)
	_ repository.OrderRepository         = (*orderRepo)(nil)
	_ repository.AnalyticsRepository     = (*analyticsRepo)(nil)
)

// ─── Products ────────────────────────────────────────────────────────────────

type productRepo struct{ base }

func copyProduct(p *entity.Product) *entity.Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (r *productRepo) Create(ctx context.Context, product *entity.Product) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.products[product.ID]; ok {
			return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, product.ID)
		}
		for _, p := range st.products {
			if p.SKU == product.SKU {
				return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, product.SKU)
			}
			if product.Barcode != "" && p.Barcode == product.Barcode {
				return fmt.Errorf("%w: barcode %s", domain.ErrDuplicate, product.Barcode)
			}
		}
		c := copyProduct(product)
		c.AggregateQuantity = 0
		st.products[c.ID] = c
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return copyProduct(r.read().products[id]), nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	for _, p := range r.read().products {
		if p.SKU == sku {
			return copyProduct(p), nil
		}
	}
	return nil, nil
}

func (r *productRepo) GetByBarcode(_ context.Context, barcode string) (*entity.Product, error) {
	if barcode == "" {
		return nil, nil
	}
	for _, p := range r.read().products {
		if p.Barcode == barcode {
			return copyProduct(p), nil
		}
	}
	return nil, nil
}

func (r *productRepo) Update(ctx context.Context, product *entity.Product) error {
	return r.write(ctx, func(st *state) error {
		cur, ok := st.products[product.ID]
		if !ok {
			return notFound("producto", product.ID)
		}
		if product.Barcode != "" {
			for _, p := range st.products {
				if p.ID != product.ID && p.Barcode == product.Barcode {
					return fmt.Errorf("%w: barcode %s", domain.ErrDuplicate, product.Barcode)
				}
			}
		}
		cur.Name = product.Name
		cur.Barcode = product.Barcode
		cur.Price = product.Price
		cur.ReorderThreshold = product.ReorderThreshold
		cur.CategoryID = product.CategoryID
		cur.UpdatedAt = product.UpdatedAt
		return nil
	})
}

func (r *productRepo) UpdateStockTotals(ctx context.Context, productID string, aggregateQty int64, cost decimal.Decimal, updatedAt time.Time) error {
	return r.write(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return notFound("producto", productID)
		}
		if aggregateQty < 0 {
			return fmt.Errorf("%w: cantidad agregada negativa", domain.ErrInsufficientStock)
		}
		p.AggregateQuantity = aggregateQty
		p.Cost = cost
		p.UpdatedAt = updatedAt
		return nil
	})
}

func (r *productRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	st := r.read()
	list := make([]*entity.Product, 0, len(st.products))
	for _, p := range st.products {
		list = append(list, copyProduct(p))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return page(list, limit, offset), nil
}

// ─── Locations ───────────────────────────────────────────────────────────────

type locationRepo struct{ base }

func copyLocation(l *entity.Location) *entity.Location {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

func (r *locationRepo) Create(ctx context.Context, location *entity.Location) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.locations[location.ID]; ok {
			return fmt.Errorf("%w: ubicación %s", domain.ErrDuplicate, location.ID)
		}
		st.locations[location.ID] = copyLocation(location)
		return nil
	})
}

func (r *locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	return copyLocation(r.read().locations[id]), nil
}

func (r *locationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Location, error) {
	return r.GetByID(ctx, id)
}

func (r *locationRepo) GetForShare(ctx context.Context, id string) (*entity.Location, error) {
	return r.GetByID(ctx, id)
}

func (r *locationRepo) Update(ctx context.Context, location *entity.Location) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.locations[location.ID]; !ok {
			return notFound("ubicación", location.ID)
		}
		st.locations[location.ID] = copyLocation(location)
		return nil
	})
}

func (r *locationRepo) List(_ context.Context, limit, offset int) ([]*entity.Location, error) {
	st := r.read()
	list := make([]*entity.Location, 0, len(st.locations))
	for _, l := range st.locations {
		list = append(list, copyLocation(l))
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return page(list, limit, offset), nil
}

// ─── Product stock ───────────────────────────────────────────────────────────

type stockRepo struct{ base }

func (r *stockRepo) Get(_ context.Context, productID, locationID string) (*entity.ProductStock, error) {
	if s, ok := r.read().stock[stockKey{productID, locationID}]; ok {
		c := *s
		return &c, nil
	}
	return &entity.ProductStock{ProductID: productID, LocationID: locationID}, nil
}

func (r *stockRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.ProductStock, error) {
	var out *entity.ProductStock
	err := r.write(ctx, func(st *state) error {
		k := stockKey{productID, locationID}
		s, ok := st.stock[k]
		if !ok {
			s = &entity.ProductStock{ProductID: productID, LocationID: locationID}
			st.stock[k] = s
		}
		c := *s
		out = &c
		return nil
	})
	return out, err
}

func (r *stockRepo) Upsert(ctx context.Context, stock *entity.ProductStock) error {
	return r.write(ctx, func(st *state) error {
		if stock.Quantity < 0 {
			return fmt.Errorf("%w: cantidad negativa en %s", domain.ErrInsufficientStock, stock.LocationID)
		}
		c := *stock
		st.stock[stockKey{stock.ProductID, stock.LocationID}] = &c
		return nil
	})
}

func (r *stockRepo) ListByLocation(_ context.Context, locationID string) ([]entity.LocationStockItem, error) {
	st := r.read()
	var items []entity.LocationStockItem
	for k, s := range st.stock {
		if k.locationID != locationID {
			continue
		}
		it := entity.LocationStockItem{ProductID: k.productID, Quantity: s.Quantity}
		if p, ok := st.products[k.productID]; ok {
			it.SKU, it.Name = p.SKU, p.Name
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items, nil
}

func (r *stockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.ProductStock, error) {
	var list []*entity.ProductStock
	for k, s := range r.read().stock {
		if k.productID == productID {
			c := *s
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].LocationID < list[j].LocationID })
	return list, nil
}

func (r *stockRepo) HasStockAtLocation(_ context.Context, locationID string) (bool, error) {
	for k, s := range r.read().stock {
		if k.locationID == locationID && s.Quantity != 0 {
			return true, nil
		}
	}
	return false, nil
}

// ─── Movements ───────────────────────────────────────────────────────────────

type movementRepo struct{ base }

func (r *movementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	return r.write(ctx, func(st *state) error {
		for _, existing := range st.movements {
			if existing.ID == m.ID {
				return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, m.ID)
			}
		}
		c := *m
		st.movements = append(st.movements, &c)
		return nil
	})
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	for _, m := range r.read().movements {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r *movementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	list := r.byProduct(productID)
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return page(list, limit, offset), nil
}

func (r *movementRepo) ListForReplay(_ context.Context, productID string) ([]*entity.StockMovement, error) {
	list := r.byProduct(productID)
	sortChronological(list)
	return list, nil
}

func (r *movementRepo) byProduct(productID string) []*entity.StockMovement {
	var list []*entity.StockMovement
	for _, m := range r.read().movements {
		if m.ProductID == productID {
			c := *m
			list = append(list, &c)
		}
	}
	return list
}

// sortChronological orden estable por fecha; a igual fecha se conserva el orden de inserción.
func sortChronological(list []*entity.StockMovement) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
}

// ─── Orders ──────────────────────────────────────────────────────────────────

type orderRepo struct{ base }

func (r *orderRepo) Create(ctx context.Context, order *entity.Order) error {
	return r.write(ctx, func(st *state) error {
		for _, o := range st.orders {
			if o.ID == order.ID || o.Reference == order.Reference {
				return fmt.Errorf("%w: orden con referencia %s", domain.ErrDuplicate, order.Reference)
			}
		}
		st.orders[order.ID] = copyOrder(order)
		return nil
	})
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	if o, ok := r.read().orders[id]; ok {
		return copyOrder(o), nil
	}
	return nil, nil
}

func (r *orderRepo) GetByReference(_ context.Context, reference string) (*entity.Order, error) {
	for _, o := range r.read().orders {
		if o.Reference == reference {
			return copyOrder(o), nil
		}
	}
	return nil, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus, at time.Time) error {
	return r.write(ctx, func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return notFound("orden", id)
		}
		o.Status = status
		o.UpdatedAt = at
		return nil
	})
}

func (r *orderRepo) UpdateLine(ctx context.Context, line *entity.OrderLine) error {
	return r.write(ctx, func(st *state) error {
		o, ok := st.orders[line.OrderID]
		if !ok {
			return notFound("orden", line.OrderID)
		}
		for i := range o.Lines {
			if o.Lines[i].ID == line.ID {
				o.Lines[i].ReturnedQuantity = line.ReturnedQuantity
				o.Lines[i].MovementID = line.MovementID
				return nil
			}
		}
		return notFound("línea", line.ID)
	})
}

// ─── Analytics ───────────────────────────────────────────────────────────────

type analyticsRepo struct{ base }

func (r *analyticsRepo) ListStockLevels(_ context.Context, locationID string) ([]repository.StockLevel, error) {
	st := r.read()
	out := make([]repository.StockLevel, 0, len(st.products))
	for _, p := range st.products {
		qty := p.AggregateQuantity
		if locationID != "" {
			qty = 0
			if s, ok := st.stock[stockKey{p.ID, locationID}]; ok {
				qty = s.Quantity
			}
		}
		out = append(out, repository.StockLevel{
			ProductID:        p.ID,
			SKU:              p.SKU,
			ProductName:      p.Name,
			CategoryID:       p.CategoryID,
			Cost:             p.Cost,
			ReorderThreshold: p.ReorderThreshold,
			Quantity:         qty,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r *analyticsRepo) ListMovementsSince(_ context.Context, since time.Time, productID string) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for _, m := range r.read().movements {
		if m.CreatedAt.Before(since) || (productID != "" && m.ProductID != productID) {
			continue
		}
		c := *m
		list = append(list, &c)
	}
	sortChronological(list)
	return list, nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
