package config

import (
	"time"

	redisclient "github.com/trenchlabs/trenchbot/internal/infra/redis"
	"github.com/trenchlabs/trenchbot/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Telegram TelegramConfig     `yaml:"telegram"`
	Solana   SolanaConfig       `yaml:"solana"`
	Helius   HeliusConfig       `yaml:"helius"`
	Premium  PremiumConfig      `yaml:"premium"`
	Price    PriceConfig        `yaml:"price"`
	Storage  StorageConfig      `yaml:"storage"`
	Redis    redisclient.Config `yaml:"redis"`
	Bot      BotConfig          `yaml:"bot"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// TelegramConfig holds bot credentials.
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// SolanaConfig holds RPC endpoint settings.
type SolanaConfig struct {
	RPCURL     string `yaml:"rpc_url"`
	Commitment string `yaml:"commitment"` // processed, confirmed, finalized
}

// HeliusConfig holds webhook registration settings.
type HeliusConfig struct {
	APIURL         string `yaml:"api_url"`
	APIKey         string `yaml:"api_key"`
	WebhookBaseURL string `yaml:"webhook_base_url"`
}

// PremiumConfig holds the premium upgrade payment settings.
type PremiumConfig struct {
	DevWallet   string `yaml:"dev_wallet"`
	FeeLamports uint64 `yaml:"fee_lamports"`
	ScanLimit   int    `yaml:"scan_limit"`
	RequestTTL  string `yaml:"request_ttl"` // e.g. "30m"

	requestTTL time.Duration
}

// RequestTTLDuration returns the parsed request TTL.
func (c PremiumConfig) RequestTTLDuration() time.Duration {
	return c.requestTTL
}

// PriceConfig holds the SOL spot price source.
type PriceConfig struct {
	APIURL string `yaml:"api_url"`
}

// StorageConfig selects the user store backend. A database URL wins over
// a file path; with neither set the store is in-memory only.
type StorageConfig struct {
	Path     string          `yaml:"path"`
	Database postgres.Config `yaml:"database"`
}

// BotConfig holds conversation settings.
type BotConfig struct {
	FreeWalletLimit int    `yaml:"free_wallet_limit"`
	AwaitingTimeout string `yaml:"awaiting_timeout"` // e.g. "10m"

	awaitingTimeout time.Duration
}

// AwaitingTimeoutDuration returns the parsed add-wallet flow expiry.
func (c BotConfig) AwaitingTimeoutDuration() time.Duration {
	return c.awaitingTimeout
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
