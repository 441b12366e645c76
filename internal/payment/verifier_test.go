package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trenchlabs/trenchbot/internal/core/domain"
	"github.com/trenchlabs/trenchbot/internal/infra/storage/memory"
)

// fakeSolana serves canned RPC data.
type fakeSolana struct {
	balances   map[string]uint64
	signatures []string
	// signature -> (payer, lamports)
	txs   map[string]fakeTx
	calls int
}

type fakeTx struct {
	payer    string
	lamports uint64
}

func (f *fakeSolana) Balance(ctx context.Context, address string) (uint64, error) {
	return f.balances[address], nil
}

func (f *fakeSolana) RecentSignatures(ctx context.Context, address string, limit int) ([]string, error) {
	f.calls++
	if len(f.signatures) > limit {
		return f.signatures[:limit], nil
	}
	return f.signatures, nil
}

func (f *fakeSolana) TransactionDelta(ctx context.Context, signature string) (string, uint64, error) {
	tx, ok := f.txs[signature]
	if !ok {
		return "", 0, errors.New("transaction not found")
	}
	return tx.payer, tx.lamports, nil
}

func newVerifier(t *testing.T, sol *fakeSolana, ttl time.Duration) (*Verifier, *memory.UserRepo, *memory.PaymentRepo) {
	t.Helper()
	store := memory.NewMemoryStorage()
	users := memory.NewUserRepo(store, 1)
	payments := memory.NewPaymentRepo(store)
	v := NewVerifier(Config{
		DevWallet:   "DevWallet",
		FeeLamports: 50_000_000,
		ScanLimit:   50,
		RequestTTL:  ttl,
	}, users, payments, sol)
	return v, users, payments
}

func TestVerify_NoRequest(t *testing.T) {
	v, _, _ := newVerifier(t, &fakeSolana{}, time.Hour)

	_, err := v.Verify(context.Background(), 1)
	if !errors.Is(err, ErrNoRequest) {
		t.Errorf("err = %v, want ErrNoRequest", err)
	}
}

func TestVerify_ConfirmsPayment(t *testing.T) {
	sol := &fakeSolana{
		signatures: []string{"sig1", "sig2"},
		txs: map[string]fakeTx{
			"sig1": {payer: "SomeoneElse", lamports: 99_000_000},
			"sig2": {payer: "PayerAddr", lamports: 50_000_000},
		},
	}
	v, users, _ := newVerifier(t, sol, time.Hour)
	ctx := context.Background()

	if _, err := v.Request(ctx, 1, "PayerAddr"); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	ok, err := v.Verify(ctx, 1)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Fatal("expected payment to be confirmed")
	}

	u, _ := users.Get(ctx, 1)
	if !u.Premium {
		t.Error("premium flag not set after confirmation")
	}
}

func TestVerify_IdempotentAfterConfirm(t *testing.T) {
	sol := &fakeSolana{
		signatures: []string{"sig1"},
		txs:        map[string]fakeTx{"sig1": {payer: "PayerAddr", lamports: 60_000_000}},
	}
	v, _, _ := newVerifier(t, sol, time.Hour)
	ctx := context.Background()

	_, _ = v.Request(ctx, 1, "PayerAddr")
	if ok, _ := v.Verify(ctx, 1); !ok {
		t.Fatal("first Verify should confirm")
	}

	scansBefore := sol.calls
	ok, err := v.Verify(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("second Verify = (%v, %v), want (true, nil)", ok, err)
	}
	if sol.calls != scansBefore {
		t.Error("confirmed request should not rescan")
	}
}

func TestVerify_BelowThresholdObserved(t *testing.T) {
	sol := &fakeSolana{
		signatures: []string{"sig1"},
		txs:        map[string]fakeTx{"sig1": {payer: "PayerAddr", lamports: 1_000_000}},
	}
	v, _, payments := newVerifier(t, sol, time.Hour)
	ctx := context.Background()

	_, _ = v.Request(ctx, 1, "PayerAddr")
	ok, err := v.Verify(ctx, 1)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("below-threshold transfer must not confirm")
	}

	req, _ := payments.Latest(ctx, 1)
	if req.State != domain.PaymentObserved {
		t.Errorf("state = %s, want observed", req.State)
	}
}

func TestVerify_WrongPayer(t *testing.T) {
	sol := &fakeSolana{
		signatures: []string{"sig1"},
		txs:        map[string]fakeTx{"sig1": {payer: "SomeoneElse", lamports: 99_000_000}},
	}
	v, _, payments := newVerifier(t, sol, time.Hour)
	ctx := context.Background()

	_, _ = v.Request(ctx, 1, "PayerAddr")
	if ok, _ := v.Verify(ctx, 1); ok {
		t.Fatal("transfer from another payer must not confirm")
	}
	req, _ := payments.Latest(ctx, 1)
	if req.State != domain.PaymentRequested {
		t.Errorf("state = %s, want requested", req.State)
	}
}

func TestVerify_ExpiredRequest(t *testing.T) {
	sol := &fakeSolana{
		signatures: []string{"sig1"},
		txs:        map[string]fakeTx{"sig1": {payer: "PayerAddr", lamports: 60_000_000}},
	}
	v, _, payments := newVerifier(t, sol, time.Hour)
	ctx := context.Background()

	// Seed an already-expired request directly.
	if err := payments.Create(ctx, &domain.PaymentRequest{
		ID:             "req-1",
		ChatID:         1,
		Payer:          "PayerAddr",
		AmountLamports: 50_000_000,
		State:          domain.PaymentRequested,
		CreatedAt:      time.Now().Add(-2 * time.Hour),
		ExpiresAt:      time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	ok, err := v.Verify(ctx, 1)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("expired request must not confirm")
	}
	req, _ := payments.Latest(ctx, 1)
	if req.State != domain.PaymentExpired {
		t.Errorf("state = %s, want expired", req.State)
	}
}

func TestRequest_ReusesOpenRequest(t *testing.T) {
	v, _, _ := newVerifier(t, &fakeSolana{}, time.Hour)
	ctx := context.Background()

	first, err := v.Request(ctx, 1, "PayerAddr")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	second, err := v.Request(ctx, 1, "PayerAddr")
	if err != nil {
		t.Fatalf("second Request failed: %v", err)
	}
	if first.ID != second.ID {
		t.Error("open request should be reused, not stacked")
	}
}

func TestHasBalance(t *testing.T) {
	sol := &fakeSolana{balances: map[string]uint64{"Rich": 60_000_000, "Poor": 1}}
	v, _, _ := newVerifier(t, sol, time.Hour)
	ctx := context.Background()

	if !v.HasBalance(ctx, "Rich") {
		t.Error("Rich should pass the balance gate")
	}
	if v.HasBalance(ctx, "Poor") {
		t.Error("Poor should not pass the balance gate")
	}
}
