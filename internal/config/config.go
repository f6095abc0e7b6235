// Package config loads the bridge's YAML configuration: SHM transport
// keys/sizes, symbol routing, and ambient settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Counter Bridge configuration.
type Config struct {
	Shm      ShmConfig         `yaml:"shm"`
	Routing  RoutingConfig     `yaml:"routing"`
	System   SystemConfig      `yaml:"system"`
	Risk     RiskConfig        `yaml:"risk"`
}

// ShmConfig holds the SysV keys and capacities for each queue.
type ShmConfig struct {
	Backend           string `yaml:"backend"` // "sysv" or "mmap"
	RequestKey        int    `yaml:"request_key"`
	RequestCapacity   int    `yaml:"request_capacity"`
	ResponseKey       int    `yaml:"response_key"`
	ResponseCapacity  int    `yaml:"response_capacity"`
	MarketDataKey     int    `yaml:"market_data_key"`
	MarketDataCapacity int   `yaml:"market_data_capacity"`
	ClientStoreKey    int    `yaml:"client_store_key"`
	// MmapDir is used in place of SysV keys when Backend == "mmap".
	MmapDir string `yaml:"mmap_dir"`
}

// RoutingConfig is the static symbol→broker table; the bridge falls back
// to "first logged-in broker" on miss.
type RoutingConfig struct {
	SymbolBroker map[string]string `yaml:"symbol_broker"`
}

// SystemConfig holds ambient, non-domain settings.
type SystemConfig struct {
	LogLevel         string `yaml:"log_level"`
	HTTPPort         int    `yaml:"http_port"`
	RedisAddr        string `yaml:"redis_addr"`
	AuditDBPath      string `yaml:"audit_db_path"`
	OpsAMQPUrl       string `yaml:"ops_amqp_url"`
	OpsNATSUrl       string `yaml:"ops_nats_url"`
	MDFanoutGRPCAddr string `yaml:"md_fanout_grpc_addr"`
	PositionFile     string `yaml:"position_file"`
}

// RiskConfig carries the bridge-wide risk pre-check limits used by the
// simulator and, where applicable, external risk layers.
type RiskConfig struct {
	MaxPositionPerSymbol int32   `yaml:"max_position_per_symbol"`
	MaxDailyLoss         float64 `yaml:"max_daily_loss"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Shm.Backend == "" {
		c.Shm.Backend = "sysv"
	}
	if c.Shm.RequestKey == 0 {
		c.Shm.RequestKey = 0x0F20
	}
	if c.Shm.RequestCapacity == 0 {
		c.Shm.RequestCapacity = 4096
	}
	if c.Shm.ResponseKey == 0 {
		c.Shm.ResponseKey = 0x1308
	}
	if c.Shm.ResponseCapacity == 0 {
		c.Shm.ResponseCapacity = 4096
	}
	if c.Shm.MarketDataKey == 0 {
		c.Shm.MarketDataKey = 0x1001
	}
	if c.Shm.MarketDataCapacity == 0 {
		c.Shm.MarketDataCapacity = 65536
	}
	if c.Shm.ClientStoreKey == 0 {
		c.Shm.ClientStoreKey = 0x16F0
	}
	if c.System.LogLevel == "" {
		c.System.LogLevel = "info"
	}
	if c.System.HTTPPort == 0 {
		c.System.HTTPPort = 8080
	}
	if c.Routing.SymbolBroker == nil {
		c.Routing.SymbolBroker = map[string]string{}
	}
}

func (c *Config) validate() error {
	if c.Shm.Backend != "sysv" && c.Shm.Backend != "mmap" {
		return fmt.Errorf("shm.backend must be \"sysv\" or \"mmap\", got %q", c.Shm.Backend)
	}
	if c.Shm.Backend == "mmap" && c.Shm.MmapDir == "" {
		return fmt.Errorf("shm.mmap_dir is required when shm.backend is \"mmap\"")
	}
	return nil
}
