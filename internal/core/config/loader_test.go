package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
telegram:
  token: test-token
solana:
  rpc_url: https://rpc.example.com
premium:
  dev_wallet: 8k9Y8p25HPL2Q7sYBz4wnpqsjPwTMUWVBr4eT6Rb2daV
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("default port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Solana.Commitment != "confirmed" {
		t.Errorf("default commitment = %q", cfg.Solana.Commitment)
	}
	if cfg.Premium.FeeLamports != 50_000_000 {
		t.Errorf("default fee = %d", cfg.Premium.FeeLamports)
	}
	if cfg.Premium.ScanLimit != 50 {
		t.Errorf("default scan limit = %d", cfg.Premium.ScanLimit)
	}
	if cfg.Bot.FreeWalletLimit != 1 {
		t.Errorf("default free wallet limit = %d", cfg.Bot.FreeWalletLimit)
	}
	if cfg.Premium.RequestTTLDuration() != 30*time.Minute {
		t.Errorf("default request ttl = %v", cfg.Premium.RequestTTLDuration())
	}
	if cfg.Bot.AwaitingTimeoutDuration() != 10*time.Minute {
		t.Errorf("default awaiting timeout = %v", cfg.Bot.AwaitingTimeoutDuration())
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "expanded-token")

	cfg, err := Load(writeConfig(t, `
telegram:
  token: ${TEST_BOT_TOKEN}
solana:
  rpc_url: https://rpc.example.com
premium:
  dev_wallet: DevWalletAddr
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Telegram.Token != "expanded-token" {
		t.Errorf("token = %q, want expanded-token", cfg.Telegram.Token)
	}
}

func TestLoad_Durations(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
bot:
  awaiting_timeout: 5m
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Bot.AwaitingTimeoutDuration() != 5*time.Minute {
		t.Errorf("awaiting timeout = %v, want 5m", cfg.Bot.AwaitingTimeoutDuration())
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"no token", `
solana:
  rpc_url: https://rpc.example.com
premium:
  dev_wallet: DevWalletAddr
`},
		{"no rpc url", `
telegram:
  token: t
premium:
  dev_wallet: DevWalletAddr
`},
		{"no dev wallet", `
telegram:
  token: t
solana:
  rpc_url: https://rpc.example.com
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: t
solana:
  rpc_url: https://rpc.example.com
premium:
  dev_wallet: DevWalletAddr
  request_ttl: not-a-duration
`))
	if err == nil {
		t.Error("expected error for invalid duration")
	}
}
