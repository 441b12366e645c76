package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trenchlabs/trenchbot/internal/core/domain"
	"github.com/trenchlabs/trenchbot/internal/infra/solana"
	"github.com/trenchlabs/trenchbot/internal/infra/storage"
	"github.com/trenchlabs/trenchbot/internal/metrics"
)

// ErrNoRequest is returned by Verify when the chat has no payment request.
var ErrNoRequest = errors.New("no pending payment request")

// Config holds premium payment settings.
type Config struct {
	DevWallet   string
	FeeLamports uint64
	ScanLimit   int
	RequestTTL  time.Duration
}

// Verifier confirms premium upgrade payments. Each upgrade is a persisted
// request moving requested → observed → confirmed or expired, so a
// confirmation survives restarts and repeated checks never rescan.
type Verifier struct {
	cfg      Config
	users    storage.UserRepository
	payments storage.PaymentRepository
	sol      solana.Client
	log      *slog.Logger
}

// NewVerifier creates a payment verifier.
func NewVerifier(cfg Config, users storage.UserRepository, payments storage.PaymentRepository, sol solana.Client) *Verifier {
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = 50
	}
	if cfg.RequestTTL <= 0 {
		cfg.RequestTTL = 30 * time.Minute
	}
	return &Verifier{
		cfg:      cfg,
		users:    users,
		payments: payments,
		sol:      sol,
		log:      slog.Default(),
	}
}

// Request opens a payment request for the chat. An open, unexpired
// request is reused so repeated taps on the upgrade button do not stack.
func (v *Verifier) Request(ctx context.Context, chatID int64, payer string) (*domain.PaymentRequest, error) {
	existing, err := v.payments.Latest(ctx, chatID)
	if err != nil && !errors.Is(err, storage.ErrPaymentNotFound) {
		return nil, err
	}
	if existing != nil && existing.Open() && !existing.Expired(time.Now()) {
		return existing, nil
	}

	req := &domain.PaymentRequest{
		ID:             uuid.NewString(),
		ChatID:         chatID,
		Payer:          payer,
		AmountLamports: v.cfg.FeeLamports,
		State:          domain.PaymentRequested,
		CreatedAt:      time.Now(),
		ExpiresAt:      time.Now().Add(v.cfg.RequestTTL),
	}
	if err := v.payments.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}
	return req, nil
}

// Verify checks whether the chat's payment request has been paid.
// Returns true once and forever after a qualifying transfer is found.
func (v *Verifier) Verify(ctx context.Context, chatID int64) (bool, error) {
	req, err := v.payments.Latest(ctx, chatID)
	if errors.Is(err, storage.ErrPaymentNotFound) {
		return false, ErrNoRequest
	}
	if err != nil {
		return false, err
	}

	switch {
	case req.State == domain.PaymentConfirmed:
		return true, nil
	case req.State == domain.PaymentExpired:
		return false, nil
	case req.Expired(time.Now()):
		if err := v.payments.UpdateState(ctx, req.ID, domain.PaymentExpired); err != nil {
			v.log.Warn("Failed to expire payment request", "id", req.ID, "error", err)
		}
		return false, nil
	}

	confirmed, err := v.scan(ctx, req)
	if err != nil {
		return false, err
	}
	if !confirmed {
		return false, nil
	}

	if err := v.payments.UpdateState(ctx, req.ID, domain.PaymentConfirmed); err != nil {
		return false, fmt.Errorf("confirm payment request: %w", err)
	}
	if err := v.users.SetPremium(ctx, chatID, true); err != nil {
		return false, fmt.Errorf("set premium: %w", err)
	}
	metrics.PaymentsConfirmed.Inc()
	return true, nil
}

// scan walks the dev wallet's recent signatures looking for a transfer
// from the request's payer meeting the fee threshold. First match wins.
// A payment older than the scan window is not found; that is the
// documented limit of the window.
func (v *Verifier) scan(ctx context.Context, req *domain.PaymentRequest) (bool, error) {
	metrics.PaymentScans.Inc()

	sigs, err := v.sol.RecentSignatures(ctx, v.cfg.DevWallet, v.cfg.ScanLimit)
	if err != nil {
		return false, fmt.Errorf("fetch signatures: %w", err)
	}

	observed := false
	for _, sig := range sigs {
		payer, lamports, err := v.sol.TransactionDelta(ctx, sig)
		if err != nil {
			v.log.Debug("Skipping transaction", "signature", sig, "error", err)
			continue
		}
		if payer != req.Payer {
			continue
		}
		if lamports >= req.AmountLamports {
			return true, nil
		}
		observed = true
	}

	if observed && req.State == domain.PaymentRequested {
		// A transfer from the payer exists but is below the fee.
		if err := v.payments.UpdateState(ctx, req.ID, domain.PaymentObserved); err != nil {
			v.log.Warn("Failed to mark payment observed", "id", req.ID, "error", err)
		}
	}
	return false, nil
}

// HasBalance is the legacy gate used by the add-wallet flow: it treats a
// payer balance at or above the fee as proof of payment. Kept alongside
// the request flow for the original bot's behavior.
func (v *Verifier) HasBalance(ctx context.Context, wallet string) bool {
	balance, err := v.sol.Balance(ctx, wallet)
	if err != nil {
		v.log.Warn("Balance check failed", "wallet", wallet, "error", err)
		return false
	}
	return balance >= v.cfg.FeeLamports
}
