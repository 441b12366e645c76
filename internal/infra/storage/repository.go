package storage

import (
	"context"
	"errors"

	"github.com/trenchlabs/trenchbot/internal/core/domain"
)

var (
	// ErrWalletLimit is returned when a free-tier user tries to track
	// more wallets than the free limit allows.
	ErrWalletLimit = errors.New("free wallet limit reached")

	// ErrDuplicateWallet is returned when the user already tracks the address.
	ErrDuplicateWallet = errors.New("wallet already tracked")

	// ErrPaymentNotFound is returned when no payment request exists for a chat.
	ErrPaymentNotFound = errors.New("payment request not found")
)

// UserRepository handles user and wallet storage.
type UserRepository interface {
	// Get retrieves the user for a chat, creating a default record if absent.
	Get(ctx context.Context, chatID int64) (*domain.User, error)

	// Save persists the full user record.
	Save(ctx context.Context, user *domain.User) error

	// AddWallet appends an address to the user's tracked list. It enforces
	// de-duplication and the free-tier limit atomically per chat.
	AddWallet(ctx context.Context, chatID int64, address string) error

	// RemoveWallets clears the user's tracked list.
	RemoveWallets(ctx context.Context, chatID int64) error

	// ListWallets returns the user's tracked addresses in insertion order.
	ListWallets(ctx context.Context, chatID int64) ([]string, error)

	// ChatsTracking returns every chat that tracks the given address.
	ChatsTracking(ctx context.Context, address string) ([]int64, error)

	// SetPremium flips the premium flag for a chat.
	SetPremium(ctx context.Context, chatID int64, premium bool) error

	// Reset wipes all users. Admin use only.
	Reset(ctx context.Context) error
}

// PaymentRepository handles premium payment request storage.
type PaymentRepository interface {
	// Create persists a new payment request.
	Create(ctx context.Context, req *domain.PaymentRequest) error

	// Latest retrieves the most recent request for a chat.
	Latest(ctx context.Context, chatID int64) (*domain.PaymentRequest, error)

	// UpdateState moves a request to a new state.
	UpdateState(ctx context.Context, id string, state domain.PaymentState) error
}
