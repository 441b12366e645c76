package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/trenchlabs/trenchbot/internal/core/domain"
	"github.com/trenchlabs/trenchbot/internal/infra/storage"
)

// PaymentRepo implements storage.PaymentRepository using PostgreSQL.
type PaymentRepo struct {
	db *DB
}

// NewPaymentRepo creates a new PostgreSQL payment repository.
func NewPaymentRepo(db *DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Create(ctx context.Context, req *domain.PaymentRequest) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_requests (id, chat_id, payer, amount_lamports, state, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.ChatID, req.Payer, req.AmountLamports, req.State,
		req.CreatedAt, req.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}
	return nil
}

func (r *PaymentRepo) Latest(ctx context.Context, chatID int64) (*domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	err := r.db.QueryRowxContext(ctx, `
		SELECT id, chat_id, payer, amount_lamports, state, created_at, expires_at
		FROM payment_requests
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, chatID).Scan(
		&req.ID, &req.ChatID, &req.Payer, &req.AmountLamports,
		&req.State, &req.CreatedAt, &req.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment request: %w", err)
	}
	return &req, nil
}

func (r *PaymentRepo) UpdateState(ctx context.Context, id string, state domain.PaymentState) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_requests SET state = $2 WHERE id = $1`, id, state)
	if err != nil {
		return fmt.Errorf("failed to update payment state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrPaymentNotFound
	}
	return nil
}

var _ storage.PaymentRepository = (*PaymentRepo)(nil)
