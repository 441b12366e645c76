package domain

import "time"

// PaymentState tracks a premium payment request through its lifecycle.
type PaymentState string

const (
	// PaymentRequested means the user was shown the dev wallet and fee.
	PaymentRequested PaymentState = "requested"
	// PaymentObserved means a transfer from the payer was seen on chain
	// but did not meet the fee threshold.
	PaymentObserved PaymentState = "observed"
	// PaymentConfirmed means a qualifying transfer was found.
	PaymentConfirmed PaymentState = "confirmed"
	// PaymentExpired means the request aged out before confirmation.
	PaymentExpired PaymentState = "expired"
)

// PaymentRequest is a persisted premium upgrade request. Persisting the
// request makes verification idempotent: once confirmed, later checks
// answer from state instead of rescanning transaction history.
type PaymentRequest struct {
	ID             string       `json:"id"`
	ChatID         int64        `json:"chat_id"`
	Payer          string       `json:"payer"`
	AmountLamports uint64       `json:"amount_lamports"`
	State          PaymentState `json:"state"`
	CreatedAt      time.Time    `json:"created_at"`
	ExpiresAt      time.Time    `json:"expires_at"`
}

// Expired reports whether the request aged out at the given time.
func (p *PaymentRequest) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Open reports whether the request can still be confirmed.
func (p *PaymentRequest) Open() bool {
	return p.State == PaymentRequested || p.State == PaymentObserved
}
