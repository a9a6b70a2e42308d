package config

import (
	"fmt"

	"github.com/jhoicas/stockledger-api/internal/domain"
)

// Validate revisa combinaciones inválidas. Los errores envuelven domain.ErrConfiguration.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("%w: STORE_DRIVER desconocido %q", domain.ErrConfiguration, c.Store.Driver)
	}

	switch c.Ledger.LocationMode {
	case LocationModeMulti:
	case LocationModeSingle:
		if c.Ledger.DefaultLocationID == "" {
			return fmt.Errorf("%w: LEDGER_DEFAULT_LOCATION_ID es obligatorio en modo single", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: LEDGER_LOCATION_MODE desconocido %q", domain.ErrConfiguration, c.Ledger.LocationMode)
	}
	if c.Ledger.TxTimeout <= 0 {
		return fmt.Errorf("%w: LEDGER_TX_TIMEOUT debe ser positivo", domain.ErrConfiguration)
	}

	a := c.Analytics
	if a.TurnoverWindowDays <= 0 || a.StockoutWindowDays <= 0 || a.ForecastHistoryMonths <= 0 {
		return fmt.Errorf("%w: las ventanas de analítica deben ser positivas", domain.ErrConfiguration)
	}
	if a.ForecastBand < 0 {
		return fmt.Errorf("%w: ANALYTICS_FORECAST_BAND no puede ser negativo", domain.ErrConfiguration)
	}
	switch a.CacheDriver {
	case CacheDriverMemory:
	case CacheDriverRedis:
		if a.RedisURL == "" {
			return fmt.Errorf("%w: REDIS_URL es obligatorio con ANALYTICS_CACHE_DRIVER=redis", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: ANALYTICS_CACHE_DRIVER desconocido %q", domain.ErrConfiguration, a.CacheDriver)
	}
	return nil
}
