package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/analytics"
)

// ── Query parameters ──────────────────────────────────────────────────────────

// InventoryAnalyticsRequest parámetros para GET /api/analytics/inventory.
type InventoryAnalyticsRequest struct {
	LocationID string `query:"location_id"` // vacío = todas las ubicaciones
}

// ForecastRequest parámetros para GET /api/analytics/forecast.
type ForecastRequest struct {
	Periods   int    `query:"periods"`    // meses a proyectar (1..24, default 3)
	ProductID string `query:"product_id"` // vacío = todos los productos
}

// ── Rotación y quiebre ────────────────────────────────────────────────────────

// ProductAnalyticsDTO métricas de un producto en el alcance consultado.
// TurnoverRate y DaysUntilStockout son null cuando no pueden calcularse.
type ProductAnalyticsDTO struct {
	ProductID         string             `json:"product_id"`
	SKU               string             `json:"sku"`
	ProductName       string             `json:"product_name"`
	CategoryID        string             `json:"category_id,omitempty"`
	Quantity          int64              `json:"quantity"`
	ReorderThreshold  int64              `json:"reorder_threshold"`
	IsLowStock        bool               `json:"is_low_stock"`
	OutboundUnits     int64              `json:"outbound_units"`      // ventana de rotación
	AverageStock      float64            `json:"average_stock"`       // promedio de cierres diarios
	TurnoverRate      analytics.Estimate `json:"turnover_rate"`       // salidas / stock promedio
	DaysUntilStockout analytics.Estimate `json:"days_until_stockout"` // stock / tasa diaria de salida
	UnitCost          decimal.Decimal    `json:"unit_cost"`
	StockValue        decimal.Decimal    `json:"stock_value"` // Quantity * UnitCost
}

// InventoryTotalsDTO totales del alcance.
type InventoryTotalsDTO struct {
	Products   int             `json:"products"`
	Units      int64           `json:"units"`
	Value      decimal.Decimal `json:"value"`
	LowStock   int             `json:"low_stock"`
	OutOfStock int             `json:"out_of_stock"`
}

// InventoryAnalyticsResponse reporte de analítica de inventario.
type InventoryAnalyticsResponse struct {
	AsOf               time.Time             `json:"as_of"`
	LocationID         string                `json:"location_id,omitempty"`
	TurnoverWindowDays int                   `json:"turnover_window_days"`
	StockoutWindowDays int                   `json:"stockout_window_days"`
	Products           []ProductAnalyticsDTO `json:"products"`
	Totals             InventoryTotalsDTO    `json:"totals"`
}

// ── Alertas de reorden ────────────────────────────────────────────────────────

// Severidad de una alerta de stock.
const (
	AlertSeverityOutOfStock = "OUT_OF_STOCK"
	AlertSeverityLow        = "LOW"
)

// StockAlertDTO producto en o bajo su umbral de reorden.
type StockAlertDTO struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	Quantity           int64           `json:"quantity"`
	ReorderThreshold   int64           `json:"reorder_threshold"`
	Deficit            int64           `json:"deficit"` // umbral - cantidad
	Severity           string          `json:"severity"`
	SuggestedOrderQty  int64           `json:"suggested_order_qty"`  // ceil(umbral * 1.5) - cantidad
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * costo promedio
}

// StockAlertsResponse alertas ordenadas por déficit descendente.
type StockAlertsResponse struct {
	AsOf   time.Time       `json:"as_of"`
	Alerts []StockAlertDTO `json:"alerts"`
}

// ── Pronóstico ────────────────────────────────────────────────────────────────

// MonthlyUnitsDTO salidas netas de un mes (YYYY-MM).
type MonthlyUnitsDTO struct {
	Month string `json:"month"`
	Units int64  `json:"units"`
}

// ForecastPointDTO estimado mensual con banda.
type ForecastPointDTO struct {
	Month    string  `json:"month"`
	Estimate float64 `json:"estimate"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// ForecastResponse historial usado y proyección.
type ForecastResponse struct {
	AsOf          time.Time          `json:"as_of"`
	ProductID     string             `json:"product_id,omitempty"`
	HistoryMonths int                `json:"history_months"`
	Band          float64            `json:"band"`
	History       []MonthlyUnitsDTO  `json:"history"`
	Points        []ForecastPointDTO `json:"points"`
}
