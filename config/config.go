package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backtest de arbitraje de volatilidad.
type Config struct {
	Simulator SimulatorConfig `yaml:"simulator"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Backtest  BacktestConfig  `yaml:"backtest"`
	Binance   BinanceConfig   `yaml:"binance"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// SimulatorConfig controla la síntesis de mercados.
type SimulatorConfig struct {
	MarketMakerEfficiency float64 `yaml:"market_maker_efficiency"` // 1 = mercado perfecto, menos = más mispricing
	NoiseStd              float64 `yaml:"noise_std"`
	Seed                  int64   `yaml:"seed"` // 0 = semilla por reloj (run no reproducible)
}

// StrategyConfig contiene los umbrales de la estrategia.
type StrategyConfig struct {
	MinVolEdgePct    float64 `yaml:"min_vol_edge_pct"`
	MinPriceEdge     float64 `yaml:"min_price_edge"`
	MinBufferPct     float64 `yaml:"min_buffer_pct"`
	MaxBufferPct     float64 `yaml:"max_buffer_pct"`
	MinTimeRemaining int     `yaml:"min_time_remaining"` // segundos
	MaxTimeRemaining int     `yaml:"max_time_remaining"` // segundos
	PMFeeRate        float64 `yaml:"pm_fee_rate"`
	PositionSize     int     `yaml:"position_size"` // shares por trade

	loaded bool `yaml:"-"` // true si el bloque strategy apareció en el YAML
}

// defaultStrategy devuelve los umbrales de referencia de la estrategia.
func defaultStrategy() StrategyConfig {
	return StrategyConfig{
		MinVolEdgePct:    0.15,
		MinPriceEdge:     0.03,
		MinBufferPct:     0.001,
		MaxBufferPct:     0.02,
		MinTimeRemaining: 120,
		MaxTimeRemaining: 600,
		PMFeeRate:        0.02,
		PositionSize:     100,
	}
}

// UnmarshalYAML rellena los defaults antes de decodificar el bloque: así un
// cero explícito en el YAML (p.ej. min_vol_edge_pct: 0, que desactiva ese
// filtro) se conserva en vez de confundirse con un campo ausente.
func (s *StrategyConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawStrategy StrategyConfig
	raw := rawStrategy(defaultStrategy())
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = StrategyConfig(raw)
	s.loaded = true
	return nil
}

// BacktestConfig controla la contabilidad del run.
type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
}

// BinanceConfig contiene los parámetros del collector de velas.
type BinanceConfig struct {
	BaseURL  string   `yaml:"base_url"`
	Symbols  []string `yaml:"symbols"`
	Interval string   `yaml:"interval"`
	Days     int      `yaml:"days"`
}

// StorageConfig controla dónde se persisten velas y runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default devuelve la configuración de referencia sin leer ningún archivo.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que todos los parámetros tengan sus valores de referencia.
func setDefaults(cfg *Config) {
	if cfg.Simulator.MarketMakerEfficiency <= 0 {
		cfg.Simulator.MarketMakerEfficiency = 0.85
	}
	if cfg.Simulator.NoiseStd <= 0 {
		cfg.Simulator.NoiseStd = 0.03
	}

	if !cfg.Strategy.loaded {
		cfg.Strategy = defaultStrategy()
	}

	if cfg.Backtest.InitialCapital <= 0 {
		cfg.Backtest.InitialCapital = 1000
	}

	if cfg.Binance.BaseURL == "" {
		cfg.Binance.BaseURL = "https://api.binance.com"
	}
	if len(cfg.Binance.Symbols) == 0 {
		cfg.Binance.Symbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT"}
	}
	if cfg.Binance.Interval == "" {
		cfg.Binance.Interval = "15m"
	}
	if cfg.Binance.Days <= 0 {
		cfg.Binance.Days = 7
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "volarb.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
