package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
)

func TestGetStockMovements_PaginaDelMasRecienteAlMasAntiguo(t *testing.T) {
	f := newFixture(t, ledger.Options{})
	f.addProduct(t, "p1", "SKU-1")
	f.addLocation(t, "A", true)
	var ids []string
	for i := int64(1); i <= 5; i++ {
		ids = append(ids, f.apply(t, in("p1", "A", i)).ID)
	}

	page, err := f.ledger.GetStockMovements(context.Background(), "p1", ledger.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[4], page.Items[0].ID)
	assert.Equal(t, ids[3], page.Items[1].ID)
	require.NotNil(t, page.NextOffset)
	assert.Equal(t, 2, *page.NextOffset)

	page, err = f.ledger.GetStockMovements(context.Background(), "p1", ledger.Page{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)
	assert.Nil(t, page.NextOffset)

	page, err = f.ledger.GetStockMovements(context.Background(), "p1", ledger.Page{})
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultPageLimit, page.Limit)
	assert.Len(t, page.Items, 5)
}

func TestGetStockMovements_Errores(t *testing.T) {
	f := newFixture(t, ledger.Options{})
	f.addProduct(t, "p1", "SKU-1")

	_, err := f.ledger.GetStockMovements(context.Background(), "p1", ledger.Page{Limit: ledger.MaxPageLimit + 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.ledger.GetStockMovements(context.Background(), "p1", ledger.Page{Offset: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.ledger.GetStockMovements(context.Background(), "nope", ledger.Page{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	page, err := f.ledger.GetStockMovements(context.Background(), "p1", ledger.Page{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestGetLocationStock_OrdenadoPorSKUEIdempotente(t *testing.T) {
	f := newFixture(t, ledger.Options{})
	f.addProduct(t, "p1", "SKU-B")
	f.addProduct(t, "p2", "SKU-A")
	f.addLocation(t, "A", true)
	f.apply(t, in("p1", "A", 3))
	f.apply(t, in("p2", "A", 7))

	first, err := f.ledger.GetLocationStock(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "SKU-A", first[0].SKU)
	assert.Equal(t, int64(7), first[0].Quantity)
	assert.Equal(t, "SKU-B", first[1].SKU)

	second, err := f.ledger.GetLocationStock(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = f.ledger.GetLocationStock(context.Background(), "Z")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
