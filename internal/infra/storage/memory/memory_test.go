package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/trenchlabs/trenchbot/internal/core/domain"
	"github.com/trenchlabs/trenchbot/internal/infra/storage"
)

func TestUserRepo_GetCreatesDefault(t *testing.T) {
	repo := NewUserRepo(NewMemoryStorage(), 1)

	u, err := repo.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if u.ChatID != 42 || u.Premium || len(u.Wallets) != 0 {
		t.Errorf("unexpected default user: %+v", u)
	}
}

func TestUserRepo_AddWalletDedup(t *testing.T) {
	repo := NewUserRepo(NewMemoryStorage(), 5)
	ctx := context.Background()

	if err := repo.AddWallet(ctx, 1, "AddrX"); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	err := repo.AddWallet(ctx, 1, "AddrX")
	if !errors.Is(err, storage.ErrDuplicateWallet) {
		t.Errorf("second add err = %v, want ErrDuplicateWallet", err)
	}

	wallets, _ := repo.ListWallets(ctx, 1)
	if len(wallets) != 1 || wallets[0] != "AddrX" {
		t.Errorf("wallets = %v, want exactly one AddrX", wallets)
	}
}

func TestUserRepo_FreeLimit(t *testing.T) {
	repo := NewUserRepo(NewMemoryStorage(), 1)
	ctx := context.Background()

	if err := repo.AddWallet(ctx, 1, "Addr1"); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	// No sequence of adds may push a free user past the limit.
	for _, addr := range []string{"Addr2", "Addr3", "Addr2"} {
		if err := repo.AddWallet(ctx, 1, addr); !errors.Is(err, storage.ErrWalletLimit) {
			t.Errorf("add %s err = %v, want ErrWalletLimit", addr, err)
		}
	}

	wallets, _ := repo.ListWallets(ctx, 1)
	if len(wallets) != 1 {
		t.Errorf("free user has %d wallets, want 1", len(wallets))
	}
}

func TestUserRepo_PremiumUnbounded(t *testing.T) {
	repo := NewUserRepo(NewMemoryStorage(), 1)
	ctx := context.Background()

	if err := repo.SetPremium(ctx, 1, true); err != nil {
		t.Fatalf("SetPremium failed: %v", err)
	}
	for _, addr := range []string{"Addr1", "Addr2", "Addr3"} {
		if err := repo.AddWallet(ctx, 1, addr); err != nil {
			t.Fatalf("premium add %s failed: %v", addr, err)
		}
	}
	wallets, _ := repo.ListWallets(ctx, 1)
	if len(wallets) != 3 {
		t.Errorf("premium user has %d wallets, want 3", len(wallets))
	}
}

func TestUserRepo_ChatsTracking(t *testing.T) {
	repo := NewUserRepo(NewMemoryStorage(), 5)
	ctx := context.Background()

	_ = repo.AddWallet(ctx, 1, "Addr1")
	_ = repo.AddWallet(ctx, 2, "Addr2")
	_ = repo.AddWallet(ctx, 3, "Addr1")

	chats, err := repo.ChatsTracking(ctx, "Addr1")
	if err != nil {
		t.Fatalf("ChatsTracking failed: %v", err)
	}
	if len(chats) != 2 || chats[0] != 1 || chats[1] != 3 {
		t.Errorf("chats = %v, want [1 3]", chats)
	}

	none, _ := repo.ChatsTracking(ctx, "AddrUnknown")
	if len(none) != 0 {
		t.Errorf("unknown address tracked by %v", none)
	}
}

func TestUserRepo_RemoveWalletsAndReset(t *testing.T) {
	store := NewMemoryStorage()
	repo := NewUserRepo(store, 5)
	ctx := context.Background()

	_ = repo.AddWallet(ctx, 1, "Addr1")
	if err := repo.RemoveWallets(ctx, 1); err != nil {
		t.Fatalf("RemoveWallets failed: %v", err)
	}
	wallets, _ := repo.ListWallets(ctx, 1)
	if len(wallets) != 0 {
		t.Errorf("wallets after remove = %v", wallets)
	}

	_ = repo.AddWallet(ctx, 2, "Addr2")
	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	wallets, _ = repo.ListWallets(ctx, 2)
	if len(wallets) != 0 {
		t.Errorf("wallets after reset = %v", wallets)
	}
}

func TestPaymentRepo_Lifecycle(t *testing.T) {
	store := NewMemoryStorage()
	repo := NewPaymentRepo(store)
	ctx := context.Background()

	if _, err := repo.Latest(ctx, 1); !errors.Is(err, storage.ErrPaymentNotFound) {
		t.Errorf("Latest on empty err = %v, want ErrPaymentNotFound", err)
	}

	req := &domain.PaymentRequest{
		ID:             uuid.NewString(),
		ChatID:         1,
		Payer:          "PayerAddr",
		AmountLamports: 50_000_000,
		State:          domain.PaymentRequested,
		CreatedAt:      time.Now(),
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	if err := repo.Create(ctx, req); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.Latest(ctx, 1)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if got.ID != req.ID || got.State != domain.PaymentRequested {
		t.Errorf("Latest = %+v", got)
	}

	if err := repo.UpdateState(ctx, req.ID, domain.PaymentConfirmed); err != nil {
		t.Fatalf("UpdateState failed: %v", err)
	}
	got, _ = repo.Latest(ctx, 1)
	if got.State != domain.PaymentConfirmed {
		t.Errorf("state = %s, want confirmed", got.State)
	}

	if err := repo.UpdateState(ctx, "missing-id", domain.PaymentExpired); !errors.Is(err, storage.ErrPaymentNotFound) {
		t.Errorf("UpdateState missing err = %v", err)
	}
}
