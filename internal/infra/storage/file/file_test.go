package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/trenchlabs/trenchbot/internal/infra/storage"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := NewStore(path, 1)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s, path
}

func TestStore_RestartReload(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()

	if err := s.AddWallet(ctx, 42, "AddrX"); err != nil {
		t.Fatalf("AddWallet failed: %v", err)
	}

	// Simulate a process restart by reopening the same file.
	reloaded, err := NewStore(path, 1)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	wallets, err := reloaded.ListWallets(ctx, 42)
	if err != nil {
		t.Fatalf("ListWallets failed: %v", err)
	}
	if len(wallets) != 1 || wallets[0] != "AddrX" {
		t.Errorf("wallets after restart = %v, want [AddrX]", wallets)
	}
}

func TestStore_LegacyListFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`{ "42": ["AddrX"] }`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s, err := NewStore(path, 1)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	wallets, err := s.ListWallets(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListWallets failed: %v", err)
	}
	if len(wallets) != 1 || wallets[0] != "AddrX" {
		t.Errorf("wallets = %v, want [AddrX]", wallets)
	}
}

func TestStore_LegacyObjectWallets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	seed := `{ "7": { "wallets": [{"address": "AddrY", "paid": true}], "premium": true } }`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s, err := NewStore(path, 1)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	u, err := s.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !u.Premium || len(u.Wallets) != 1 || u.Wallets[0] != "AddrY" {
		t.Errorf("user = %+v", u)
	}
}

func TestStore_FreeLimitAndDedup(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	if err := s.AddWallet(ctx, 1, "Addr1"); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := s.AddWallet(ctx, 1, "Addr1"); !errors.Is(err, storage.ErrDuplicateWallet) {
		t.Errorf("duplicate err = %v", err)
	}
	if err := s.AddWallet(ctx, 1, "Addr2"); !errors.Is(err, storage.ErrWalletLimit) {
		t.Errorf("limit err = %v", err)
	}

	// Premium lifts the cap.
	if err := s.SetPremium(ctx, 1, true); err != nil {
		t.Fatalf("SetPremium failed: %v", err)
	}
	if err := s.AddWallet(ctx, 1, "Addr2"); err != nil {
		t.Errorf("premium add failed: %v", err)
	}
}

func TestStore_PremiumSurvivesRestart(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()

	if err := s.SetPremium(ctx, 9, true); err != nil {
		t.Fatalf("SetPremium failed: %v", err)
	}

	reloaded, err := NewStore(path, 1)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	u, err := reloaded.Get(ctx, 9)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !u.Premium {
		t.Error("premium flag lost across restart")
	}
}

func TestStore_Reset(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()

	_ = s.AddWallet(ctx, 1, "Addr1")
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	reloaded, err := NewStore(path, 1)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	wallets, _ := reloaded.ListWallets(ctx, 1)
	if len(wallets) != 0 {
		t.Errorf("wallets after reset = %v", wallets)
	}
}

func TestStore_ChatsTracking(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_ = s.AddWallet(ctx, 1, "Addr1")
	_ = s.AddWallet(ctx, 2, "Addr2")
	_ = s.AddWallet(ctx, 3, "Addr1")

	chats, err := s.ChatsTracking(ctx, "Addr1")
	if err != nil {
		t.Fatalf("ChatsTracking failed: %v", err)
	}
	if len(chats) != 2 || chats[0] != 1 || chats[1] != 3 {
		t.Errorf("chats = %v, want [1 3]", chats)
	}
}
