package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// KeyPrefix prefijo común de todas las entradas de caché de analítica.
const KeyPrefix = "analytics:"

// Cache almacén clave/valor con expiración. Get devuelve ok=false si la clave no existe o expiró.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// CachedEngine envuelve Engine con una caché de lectura.
//
// Las entradas se invalidan por (1) expiración del TTL, (2) cualquier evento de stock
// confirmado (InvalidateOnEvent, registrado como sumidero de notificaciones) y
// (3) el refresco programado, que sobrescribe las entradas globales.
// Una falla de la caché nunca falla la consulta: se registra y se calcula en línea.
type CachedEngine struct {
	engine *Engine
	cache  Cache
	ttl    time.Duration
	log    zerolog.Logger
}

var _ Reader = (*CachedEngine)(nil)

// NewCachedEngine construye la fachada con caché.
func NewCachedEngine(engine *Engine, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedEngine {
	return &CachedEngine{engine: engine, cache: cache, ttl: ttl, log: log}
}

func inventoryKey(locationID string) string {
	if locationID == "" {
		locationID = "all"
	}
	return KeyPrefix + "inventory:" + locationID
}

func alertsKey() string { return KeyPrefix + "alerts" }

func forecastKey(q ForecastQuery) string {
	product := q.ProductID
	if product == "" {
		product = "all"
	}
	return fmt.Sprintf("%sforecast:%d:%s", KeyPrefix, q.Periods, product)
}

// GetInventoryAnalytics implementa Reader.
func (c *CachedEngine) GetInventoryAnalytics(ctx context.Context, q Query) (*dto.InventoryAnalyticsResponse, error) {
	return cached(ctx, c, inventoryKey(q.LocationID), func(ctx context.Context) (*dto.InventoryAnalyticsResponse, error) {
		return c.engine.GetInventoryAnalytics(ctx, q)
	})
}

// GetStockAlerts implementa Reader.
func (c *CachedEngine) GetStockAlerts(ctx context.Context) (*dto.StockAlertsResponse, error) {
	return cached(ctx, c, alertsKey(), c.engine.GetStockAlerts)
}

// GetForecast implementa Reader.
func (c *CachedEngine) GetForecast(ctx context.Context, q ForecastQuery) (*dto.ForecastResponse, error) {
	if q.Periods == 0 {
		q.Periods = DefaultForecastPeriods
	}
	return cached(ctx, c, forecastKey(q), func(ctx context.Context) (*dto.ForecastResponse, error) {
		return c.engine.GetForecast(ctx, q)
	})
}

// Invalidate borra todas las entradas de analítica.
func (c *CachedEngine) Invalidate(ctx context.Context) error {
	return c.cache.DeletePrefix(ctx, KeyPrefix)
}

// InvalidateOnEvent sumidero de notificaciones: cualquier cambio confirmado invalida la caché.
func (c *CachedEngine) InvalidateOnEvent(ctx context.Context, ev entity.StockEvent) error {
	if err := c.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidar caché de analítica (movimiento %s): %w", ev.MovementID, err)
	}
	return nil
}

// Refresh recalcula el reporte global y las alertas y sobrescribe sus entradas.
// Es idempotente; lo ejecuta el scheduler.
func (c *CachedEngine) Refresh(ctx context.Context) error {
	inv, err := c.engine.GetInventoryAnalytics(ctx, Query{})
	if err != nil {
		return err
	}
	alerts, err := c.engine.GetStockAlerts(ctx)
	if err != nil {
		return err
	}
	c.store(ctx, inventoryKey(""), inv)
	c.store(ctx, alertsKey(), alerts)
	c.log.Debug().
		Str("as_of", asOfKey(inv.AsOf)).
		Int("products", inv.Totals.Products).
		Int("alerts", len(alerts.Alerts)).
		Msg("analítica refrescada")
	return nil
}

func (c *CachedEngine) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("no se pudo serializar entrada de caché")
		return
	}
	if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("no se pudo escribir en caché")
	}
}

func cached[T any](ctx context.Context, c *CachedEngine, key string, compute func(context.Context) (*T, error)) (*T, error) {
	b, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("lectura de caché fallida, se calcula en línea")
	}
	if ok {
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			return &v, nil
		}
		c.log.Warn().Str("key", key).Msg("entrada de caché corrupta, se descarta")
	}
	v, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, v)
	return v, nil
}
