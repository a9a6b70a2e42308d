// Package pdf genera la hoja de conteo físico de una ubicación.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Ubicación + dirección  │  Fecha de corte           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Sistema | Conteo | Diferencia       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: productos / unidades en sistema                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR (ubicación + corte) + firmas                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// printer separa miles con punto.
var printer = message.NewPrinter(language.Spanish)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa usecase.CountSheetGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

var _ usecase.CountSheetGenerator = (*MarotoPDFGenerator)(nil)

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateCountSheet genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateCountSheet(_ context.Context, sheet dto.CountSheet) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Hoja de conteo físico", true).
		WithAuthor(sheet.LocationName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(sheet))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(sheet.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(sheet))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(sheet))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: ubicación (izq) y fecha de corte (der).
func headerRow(sheet dto.CountSheet) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(sheet.LocationName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(sheet.Address, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("HOJA DE CONTEO FÍSICO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Corte: "+sheet.AsOf.Format("02/01/2006 15:04")+" UTC", props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Producto", 5, align.Left),
		h("Sistema", 2, align.Right),
		h("Conteo", 2, align.Center),
		h("Dif.", 1, align.Center),
	)
}

// tableDetailRows: una fila por producto; las columnas de conteo quedan en blanco.
func tableDetailRows(items []dto.LocationStockItemResponse) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(it.SKU, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(5).Add(text.New(it.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatUnits(it.Quantity), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("________", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray})),
			col.New(1).Add(text.New("____", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray})),
		))
	}
	return result
}

func totalsRow(sheet dto.CountSheet) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(12).Add(
		col.New(5),
		col.New(4).Add(
			label("Productos:"),
			label("Unidades en sistema:"),
		),
		col.New(3).Add(
			value(formatUnits(int64(len(sheet.Items)))),
			value(formatUnits(sheet.TotalUnits)),
		),
	)
}

// footerRow: QR con ubicación y corte para cargar el conteo, más espacio de firmas.
func footerRow(sheet dto.CountSheet) core.Row {
	payload := fmt.Sprintf("stockledger:count:%s:%s", sheet.LocationID, sheet.AsOf.Format("20060102T150405Z"))
	return row.New(40).Add(
		col.New(4).Add(code.NewQr(payload, props.Rect{Percent: 90, Center: true})),
		col.New(8).Add(
			text.New("Contado por: ______________________", props.Text{Size: 9, Top: 8, Left: 3}),
			text.New("Verificado por: ___________________", props.Text{Size: 9, Top: 18, Left: 3}),
			text.New("Las diferencias se registran como ajustes (ADJUSTMENT) con la referencia de esta hoja.", props.Text{
				Size: 7, Top: 30, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatUnits separa miles. Ej: 25000 → "25.000".
func formatUnits(n int64) string {
	return printer.Sprintf("%d", n)
}
