package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// ProductUseCase casos de uso del catálogo. Cantidades y costo promedio se manejan vía movimientos.
type ProductUseCase struct {
	repo  repository.ProductRepository
	clock clockwork.Clock
}

// NewProductUseCase construye el caso de uso. clock puede ser nil.
func NewProductUseCase(repo repository.ProductRepository, clock clockwork.Clock) *ProductUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ProductUseCase{repo: repo, clock: clock}
}

// Create crea un nuevo producto con cantidad agregada cero.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = normalizeCode(in.SKU)
	in.Barcode = normalizeCode(in.Barcode)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: sku y name son obligatorios", domain.ErrValidation)
	}
	if in.Price.IsNegative() || in.Cost.IsNegative() {
		return nil, fmt.Errorf("%w: price y cost no pueden ser negativos", domain.ErrValidation)
	}
	if in.ReorderThreshold < 0 {
		return nil, fmt.Errorf("%w: reorder_threshold negativo", domain.ErrValidation)
	}
	existing, err := uc.repo.GetBySKU(ctx, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: sku %s", domain.ErrDuplicate, in.SKU)
	}
	if err := uc.checkBarcode(ctx, in.Barcode, ""); err != nil {
		return nil, err
	}

	now := uc.clock.Now().UTC()
	product := &entity.Product{
		ID:               uuid.New().String(),
		SKU:              in.SKU,
		Barcode:          in.Barcode,
		Name:             in.Name,
		Price:            in.Price,
		Cost:             in.Cost,
		ReorderThreshold: in.ReorderThreshold,
		CategoryID:       in.CategoryID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	return toProductResponse(product), nil
}

// Update actualiza atributos de catálogo. No permite modificar Cost ni cantidades.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name vacío", domain.ErrValidation)
		}
		product.Name = name
	}
	if in.Barcode != nil {
		if barcode := normalizeCode(*in.Barcode); barcode != product.Barcode {
			if err := uc.checkBarcode(ctx, barcode, product.ID); err != nil {
				return nil, err
			}
			product.Barcode = barcode
		}
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price negativo", domain.ErrValidation)
		}
		product.Price = *in.Price
	}
	if in.ReorderThreshold != nil {
		if *in.ReorderThreshold < 0 {
			return nil, fmt.Errorf("%w: reorder_threshold negativo", domain.ErrValidation)
		}
		product.ReorderThreshold = *in.ReorderThreshold
	}
	if in.CategoryID != nil {
		product.CategoryID = *in.CategoryID
	}
	product.UpdatedAt = uc.clock.Now().UTC()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación (orden por SKU).
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func (uc *ProductUseCase) checkBarcode(ctx context.Context, barcode, selfID string) error {
	if barcode == "" {
		return nil
	}
	other, err := uc.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return err
	}
	if other != nil && other.ID != selfID {
		return fmt.Errorf("%w: barcode %s", domain.ErrDuplicate, barcode)
	}
	return nil
}

// normalizeCode NFC y sin espacios: "SKU-1 " y su forma descompuesta son el mismo código.
func normalizeCode(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:                p.ID,
		SKU:               p.SKU,
		Barcode:           p.Barcode,
		Name:              p.Name,
		Price:             p.Price,
		Cost:              p.Cost,
		ReorderThreshold:  p.ReorderThreshold,
		AggregateQuantity: p.AggregateQuantity,
		CategoryID:        p.CategoryID,
		IsLowStock:        p.IsLowStock(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
