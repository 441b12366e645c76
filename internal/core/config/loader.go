package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *AppConfig) applyDefaults() error {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Solana.Commitment == "" {
		cfg.Solana.Commitment = "confirmed"
	}
	if cfg.Helius.APIURL == "" {
		cfg.Helius.APIURL = "https://api.helius.xyz/v0"
	}
	if cfg.Premium.FeeLamports == 0 {
		cfg.Premium.FeeLamports = 50_000_000 // 0.05 SOL
	}
	if cfg.Premium.ScanLimit == 0 {
		cfg.Premium.ScanLimit = 50
	}
	if cfg.Price.APIURL == "" {
		cfg.Price.APIURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Bot.FreeWalletLimit == 0 {
		cfg.Bot.FreeWalletLimit = 1
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	var err error
	if cfg.Premium.requestTTL, err = parseDuration(cfg.Premium.RequestTTL, 30*time.Minute); err != nil {
		return fmt.Errorf("invalid premium.request_ttl: %w", err)
	}
	if cfg.Bot.awaitingTimeout, err = parseDuration(cfg.Bot.AwaitingTimeout, 10*time.Minute); err != nil {
		return fmt.Errorf("invalid bot.awaiting_timeout: %w", err)
	}
	return nil
}

func (cfg *AppConfig) validate() error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if cfg.Solana.RPCURL == "" {
		return fmt.Errorf("solana.rpc_url is required")
	}
	if cfg.Premium.DevWallet == "" {
		return fmt.Errorf("premium.dev_wallet is required")
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
