package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
)

type fakeSheetGenerator struct {
	got dto.CountSheet
	err error
}

func (f *fakeSheetGenerator) GenerateCountSheet(_ context.Context, sheet dto.CountSheet) ([]byte, error) {
	f.got = sheet
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

func TestCountSheetUseCase_Generate(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()
	clock := clockwork.NewFakeClockAt(t0)
	ctx := context.Background()

	require.NoError(t, repos.Locations.Create(ctx, &entity.Location{ID: "A", Name: "Bodega A", Address: "Calle 1", IsActive: true}))
	for _, p := range []*entity.Product{
		{ID: "p2", SKU: "SKU-B", Name: "Tornillo", CreatedAt: t0, UpdatedAt: t0},
		{ID: "p1", SKU: "SKU-A", Name: "Tuerca", CreatedAt: t0, UpdatedAt: t0},
	} {
		require.NoError(t, repos.Products.Create(ctx, p))
	}
	l := ledger.New(store, repos, nil, clock, zerolog.Nop(), ledger.Options{})
	for id, qty := range map[string]int64{"p1": 4, "p2": 1500} {
		_, err := l.ApplyMovement(ctx, ledger.MovementInput{ProductID: id, Type: entity.MovementTypeIN, Quantity: qty, LocationID: "A", ActorID: "u1"})
		require.NoError(t, err)
	}

	gen := &fakeSheetGenerator{}
	uc := usecase.NewCountSheetUseCase(repos.Locations, l, gen, clock)

	doc, err := uc.Generate(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(doc))
	assert.Equal(t, "Bodega A", gen.got.LocationName)
	assert.Equal(t, "Calle 1", gen.got.Address)
	assert.Equal(t, t0, gen.got.AsOf)
	assert.Equal(t, int64(1504), gen.got.TotalUnits)
	require.Len(t, gen.got.Items, 2)
	assert.Equal(t, "SKU-A", gen.got.Items[0].SKU)
	assert.Equal(t, int64(1500), gen.got.Items[1].Quantity)

	_, err = uc.Generate(ctx, "Z")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	gen.err = errors.New("sin fuentes")
	_, err = uc.Generate(ctx, "A")
	assert.ErrorContains(t, err, "sin fuentes")
}

func TestProductUseCase_NormalizaCodigos(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewProductUseCase(store.Repos().Products, clockwork.NewFakeClockAt(t0))
	ctx := context.Background()

	// "CAFÉ" con É precompuesta y con E + acento combinante.
	p, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "  CAFÉ-1 ", Name: " Café "})
	require.NoError(t, err)
	assert.Equal(t, "CAFÉ-1", p.SKU)
	assert.Equal(t, "Café", p.Name)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "CAFE\u0301-1", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "   ", Name: "Vacío"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
