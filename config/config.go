package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del tracker.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Monitor MonitorConfig `yaml:"monitor"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig controla el servidor HTTP.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	WebhookSecret    string `yaml:"webhook_secret"`
	CronSecret       string `yaml:"cron_secret"`
	HeartbeatSeconds int    `yaml:"heartbeat_seconds"` // keep-alive de los streams
}

// APIConfig contiene los base URLs y credenciales de las APIs externas.
type APIConfig struct {
	CLOBBase      string `yaml:"clob_base"`
	EtherscanBase string `yaml:"etherscan_base"`
	EtherscanKey  string `yaml:"etherscan_key"`
}

// MonitorConfig controla las cadencias de los ciclos periódicos.
type MonitorConfig struct {
	TradeCheckSeconds  int `yaml:"trade_check_seconds"`
	BalanceSyncSeconds int `yaml:"balance_sync_seconds"`
	CourtesyDelayMs    int `yaml:"courtesy_delay_ms"` // pausa entre mercados en un pase
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del entorno sobreescriben los del YAML para las keys
// que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// TradeCheckInterval devuelve la cadencia del pase de trades.
func (c *Config) TradeCheckInterval() time.Duration {
	return time.Duration(c.Monitor.TradeCheckSeconds) * time.Second
}

// BalanceSyncInterval devuelve la cadencia del ciclo de balances.
func (c *Config) BalanceSyncInterval() time.Duration {
	return time.Duration(c.Monitor.BalanceSyncSeconds) * time.Second
}

// CourtesyDelay devuelve la pausa entre consultas de mercados.
func (c *Config) CourtesyDelay() time.Duration {
	return time.Duration(c.Monitor.CourtesyDelayMs) * time.Millisecond
}

// Heartbeat devuelve la cadencia del keep-alive de los streams.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.Server.HeartbeatSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están
// presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ETHERSCAN_API_KEY"); v != "" {
		cfg.API.EtherscanKey = v
	}
	// Compat con el nombre histórico de la key.
	if v := os.Getenv("POLYGONSCAN_API_KEY"); v != "" && cfg.API.EtherscanKey == "" {
		cfg.API.EtherscanKey = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.Server.WebhookSecret = v
	}
	if v := os.Getenv("CRON_SECRET"); v != "" {
		cfg.Server.CronSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.HeartbeatSeconds <= 0 {
		cfg.Server.HeartbeatSeconds = 30
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.EtherscanBase == "" {
		cfg.API.EtherscanBase = "https://api.etherscan.io/v2/api"
	}
	if cfg.Monitor.TradeCheckSeconds <= 0 {
		cfg.Monitor.TradeCheckSeconds = 60
	}
	if cfg.Monitor.BalanceSyncSeconds <= 0 {
		cfg.Monitor.BalanceSyncSeconds = 300
	}
	if cfg.Monitor.CourtesyDelayMs <= 0 {
		cfg.Monitor.CourtesyDelayMs = 200
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "bottrack.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
