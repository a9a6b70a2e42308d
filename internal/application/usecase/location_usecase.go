package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// LocationUseCase registro de ubicaciones (bodegas/sucursales).
type LocationUseCase struct {
	repo            repository.LocationRepository
	txRunner        ledger.TxRunner
	clock           clockwork.Clock
	defaultLocation string // ubicación implícita en modo single; no puede desactivarse
}

// NewLocationUseCase construye el caso de uso. clock puede ser nil.
func NewLocationUseCase(repo repository.LocationRepository, txRunner ledger.TxRunner, clock clockwork.Clock, defaultLocation string) *LocationUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LocationUseCase{repo: repo, txRunner: txRunner, clock: clock, defaultLocation: defaultLocation}
}

// Create crea una nueva ubicación activa.
func (uc *LocationUseCase) Create(ctx context.Context, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name es obligatorio", domain.ErrValidation)
	}
	now := uc.clock.Now().UTC()
	location := &entity.Location{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Address:   in.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, location); err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// GetByID obtiene una ubicación por ID.
func (uc *LocationUseCase) GetByID(ctx context.Context, id string) (*dto.LocationResponse, error) {
	location, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	return toLocationResponse(location), nil
}

// Update actualiza nombre y dirección.
func (uc *LocationUseCase) Update(ctx context.Context, id string, in dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	location, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, fmt.Errorf("%w: name vacío", domain.ErrValidation)
		}
		location.Name = *in.Name
	}
	if in.Address != nil {
		location.Address = *in.Address
	}
	location.UpdatedAt = uc.clock.Now().UTC()
	if err := uc.repo.Update(ctx, location); err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// List lista ubicaciones con paginación.
func (uc *LocationUseCase) List(ctx context.Context, limit, offset int) (*dto.LocationListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *toLocationResponse(l))
	}
	return &dto.LocationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Deactivate desactiva la ubicación si no tiene stock. La verificación y la escritura ocurren en
// la misma transacción con la fila bloqueada: ningún movimiento concurrente puede colarse.
func (uc *LocationUseCase) Deactivate(ctx context.Context, id string) (*dto.LocationResponse, error) {
	if uc.defaultLocation != "" && id == uc.defaultLocation {
		return nil, fmt.Errorf("%w: la ubicación por defecto no puede desactivarse", domain.ErrConfiguration)
	}
	return uc.setActive(ctx, id, false)
}

// Activate reactiva una ubicación.
func (uc *LocationUseCase) Activate(ctx context.Context, id string) (*dto.LocationResponse, error) {
	return uc.setActive(ctx, id, true)
}

func (uc *LocationUseCase) setActive(ctx context.Context, id string, active bool) (*dto.LocationResponse, error) {
	var location *entity.Location
	err := uc.txRunner.Run(ctx, func(tx repository.TxRepos) error {
		var err error
		location, err = tx.Locations.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if location == nil {
			return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
		}
		if location.IsActive == active {
			return nil
		}
		if !active {
			hasStock, err := tx.Stock.HasStockAtLocation(ctx, id)
			if err != nil {
				return err
			}
			if hasStock {
				return fmt.Errorf("%w: %s", domain.ErrLocationHasStock, id)
			}
		}
		location.IsActive = active
		location.UpdatedAt = uc.clock.Now().UTC()
		return tx.Locations.Update(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	if l == nil {
		return nil
	}
	return &dto.LocationResponse{
		ID:        l.ID,
		Name:      l.Name,
		Address:   l.Address,
		IsActive:  l.IsActive,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}
