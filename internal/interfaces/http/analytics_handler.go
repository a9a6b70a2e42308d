package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/analytics"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
)

// AnalyticsHandler maneja los endpoints de analítica de inventario (solo lectura).
type AnalyticsHandler struct {
	reader analytics.Reader
}

// NewAnalyticsHandler construye el handler.
func NewAnalyticsHandler(reader analytics.Reader) *AnalyticsHandler {
	return &AnalyticsHandler{reader: reader}
}

// GetInventory godoc
// @Summary      Rotación, días hasta quiebre y valorización por producto
// @Description  turnover_rate y days_until_stockout son null cuando no pueden calcularse.
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Filtrar por ubicación. Vacío = todas."
// @Success      200  {object}  dto.InventoryAnalyticsResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/analytics/inventory [get]
func (h *AnalyticsHandler) GetInventory(c *fiber.Ctx) error {
	var req dto.InventoryAnalyticsRequest
	if ok, err := bindQuery(c, &req); !ok {
		return err
	}
	report, err := h.reader.GetInventoryAnalytics(c.UserContext(), analytics.Query{LocationID: req.LocationID})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// GetAlerts godoc
// @Summary      Productos en o bajo su umbral de reorden
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockAlertsResponse
// @Router       /api/analytics/alerts [get]
func (h *AnalyticsHandler) GetAlerts(c *fiber.Ctx) error {
	alerts, err := h.reader.GetStockAlerts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alerts)
}

// GetForecast godoc
// @Summary      Pronóstico mensual de salidas (mínimos cuadrados) con banda
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        periods     query  int     false  "Meses a proyectar (1..24)"  default(3)
// @Param        product_id  query  string  false  "Producto. Vacío = demanda total."
// @Success      200  {object}  dto.ForecastResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/analytics/forecast [get]
func (h *AnalyticsHandler) GetForecast(c *fiber.Ctx) error {
	var req dto.ForecastRequest
	if ok, err := bindQuery(c, &req); !ok {
		return err
	}
	forecast, err := h.reader.GetForecast(c.UserContext(), analytics.ForecastQuery{
		Periods:   req.Periods,
		ProductID: req.ProductID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(forecast)
}
