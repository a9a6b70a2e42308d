package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/domain"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, LocationModeMulti, cfg.Ledger.LocationMode)
	assert.False(t, cfg.Ledger.SingleLocation())
	assert.Equal(t, 5*time.Second, cfg.Ledger.TxTimeout)
	assert.Equal(t, 30, cfg.Analytics.TurnoverWindowDays)
	assert.InDelta(t, 0.15, cfg.Analytics.ForecastBand, 1e-9)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.True(t, cfg.Notify.Websocket)
	assert.Empty(t, cfg.Notify.KafkaBrokers)
}

func TestLoad_DesdeVariablesDeEntorno(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LEDGER_LOCATION_MODE", "single")
	t.Setenv("LEDGER_DEFAULT_LOCATION_ID", "main")
	t.Setenv("LEDGER_TX_TIMEOUT", "2")
	t.Setenv("ANALYTICS_CACHE_TTL", "90s")
	t.Setenv("ANALYTICS_FORECAST_BAND", "0.2")
	t.Setenv("NOTIFY_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("NOTIFY_WEBSOCKET", "false")
	t.Setenv("HTTP_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.True(t, cfg.Ledger.SingleLocation())
	assert.Equal(t, "main", cfg.Ledger.DefaultLocationID)
	assert.Equal(t, 2*time.Second, cfg.Ledger.TxTimeout)
	assert.Equal(t, 90*time.Second, cfg.Analytics.CacheTTL)
	assert.InDelta(t, 0.2, cfg.Analytics.ForecastBand, 1e-9)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notify.KafkaBrokers)
	assert.False(t, cfg.Notify.Websocket)
	assert.Equal(t, 9000, cfg.HTTP.Port)
}

func TestValidate_CombinacionesInvalidas(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:  StoreConfig{Driver: StoreDriverMemory},
			Ledger: LedgerConfig{TxTimeout: time.Second, LocationMode: LocationModeMulti},
			Analytics: AnalyticsConfig{
				TurnoverWindowDays: 30, StockoutWindowDays: 30, ForecastHistoryMonths: 12,
				CacheDriver: CacheDriverMemory,
			},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"driver desconocido":   func(c *Config) { c.Store.Driver = "sqlite" },
		"single sin ubicación": func(c *Config) { c.Ledger.LocationMode = LocationModeSingle },
		"modo desconocido":     func(c *Config) { c.Ledger.LocationMode = "both" },
		"timeout cero":         func(c *Config) { c.Ledger.TxTimeout = 0 },
		"ventana cero":         func(c *Config) { c.Analytics.StockoutWindowDays = 0 },
		"banda negativa":       func(c *Config) { c.Analytics.ForecastBand = -0.1 },
		"redis sin url":        func(c *Config) { c.Analytics.CacheDriver = CacheDriverRedis },
		"caché desconocida":    func(c *Config) { c.Analytics.CacheDriver = "memcached" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.ErrorIs(t, c.Validate(), domain.ErrConfiguration)
		})
	}
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", DBName: "stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/stock?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
