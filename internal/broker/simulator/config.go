package simulator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the simulator's own YAML config, loaded from the path given
// in the bridge's `<name>:<config_path>` broker spec.
type Config struct {
	InitialBalance       float64 `yaml:"initial_balance"`
	MarginRate           float64 `yaml:"margin_rate"`
	CommissionRate       float64 `yaml:"commission_rate"`
	TickSize             float64 `yaml:"tick_size"`
	AcceptDelayMs        int     `yaml:"accept_delay_ms"`
	FillDelayMs          int     `yaml:"fill_delay_ms"`
	SlippageTicks        int     `yaml:"slippage_ticks"`
	MaxPositionPerSymbol int32   `yaml:"max_position_per_symbol"`
	MaxDailyLoss         float64 `yaml:"max_daily_loss"`
}

func loadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("simulator: read %s: %w", path, err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("simulator: parse %s: %w", path, err)
	}
	return cfg, nil
}

func defaultConfig() Config {
	return Config{
		InitialBalance:       1_000_000,
		MarginRate:           0.1,
		CommissionRate:       0.0002,
		TickSize:             1.0,
		AcceptDelayMs:        20,
		FillDelayMs:          20,
		SlippageTicks:        0,
		MaxPositionPerSymbol: 1000,
		MaxDailyLoss:         1_000_000,
	}
}
