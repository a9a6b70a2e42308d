package usecase

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// CountSheetGenerator genera el documento imprimible de una hoja de conteo.
type CountSheetGenerator interface {
	GenerateCountSheet(ctx context.Context, sheet dto.CountSheet) ([]byte, error)
}

// CountSheetUseCase arma la hoja de conteo físico con las cantidades del ledger para que
// el personal de bodega anote lo contado; las diferencias entran luego como ADJUSTMENT.
type CountSheetUseCase struct {
	locations repository.LocationRepository
	ledger    *ledger.Ledger
	generator CountSheetGenerator
	clock     clockwork.Clock
}

// NewCountSheetUseCase construye el caso de uso. clock puede ser nil.
func NewCountSheetUseCase(locations repository.LocationRepository, l *ledger.Ledger, generator CountSheetGenerator, clock clockwork.Clock) *CountSheetUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CountSheetUseCase{locations: locations, ledger: l, generator: generator, clock: clock}
}

// Generate devuelve el PDF de la hoja de conteo de la ubicación.
func (uc *CountSheetUseCase) Generate(ctx context.Context, locationID string) ([]byte, error) {
	location, err := uc.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, locationID)
	}
	items, err := uc.ledger.GetLocationStock(ctx, locationID)
	if err != nil {
		return nil, err
	}

	sheet := dto.CountSheet{
		LocationID:   location.ID,
		LocationName: location.Name,
		Address:      location.Address,
		AsOf:         uc.clock.Now().UTC(),
		Items:        make([]dto.LocationStockItemResponse, 0, len(items)),
	}
	for _, it := range items {
		sheet.Items = append(sheet.Items, dto.LocationStockItemResponse{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			Quantity:  it.Quantity,
		})
		sheet.TotalUnits += it.Quantity
	}
	doc, err := uc.generator.GenerateCountSheet(ctx, sheet)
	if err != nil {
		return nil, fmt.Errorf("hoja de conteo %s: %w", locationID, err)
	}
	return doc, nil
}
