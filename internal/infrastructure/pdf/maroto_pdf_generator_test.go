package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
)

func TestGenerateCountSheet(t *testing.T) {
	sheet := dto.CountSheet{
		LocationID:   "loc-1",
		LocationName: "Bodega norte",
		AsOf:         time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
		Items: []dto.LocationStockItemResponse{
			{ProductID: "p1", SKU: "SKU-A", Name: "Tuerca", Quantity: 4},
			{ProductID: "p2", SKU: "SKU-B", Name: "Tornillo", Quantity: 25000},
		},
		TotalUnits: 25004,
	}

	doc, err := NewMarotoPDFGenerator().GenerateCountSheet(context.Background(), sheet)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestGenerateCountSheet_SinProductos(t *testing.T) {
	doc, err := NewMarotoPDFGenerator().GenerateCountSheet(context.Background(), dto.CountSheet{
		LocationID: "loc-2", LocationName: "Vacía", AsOf: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, doc)
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "25.000", formatUnits(25000))
	assert.Equal(t, "4", formatUnits(4))
}

func TestNonEmpty(t *testing.T) {
	assert.Equal(t, "x", nonEmpty("", "x"))
	assert.Equal(t, "a", nonEmpty("a", "x"))
}
