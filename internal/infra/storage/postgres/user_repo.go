package postgres

import (
	"context"
	"fmt"

	"github.com/trenchlabs/trenchbot/internal/core/domain"
	"github.com/trenchlabs/trenchbot/internal/infra/storage"
)

// UserRepo implements storage.UserRepository using PostgreSQL. Row-level
// updates replace the whole-file rewrite of the flat-file backend, so
// concurrent handlers cannot lose each other's writes.
type UserRepo struct {
	db        *DB
	freeLimit int
}

// NewUserRepo creates a new PostgreSQL user repository.
func NewUserRepo(db *DB, freeLimit int) *UserRepo {
	if freeLimit <= 0 {
		freeLimit = 1
	}
	return &UserRepo{db: db, freeLimit: freeLimit}
}

func (r *UserRepo) Get(ctx context.Context, chatID int64) (*domain.User, error) {
	u := domain.NewUser(chatID)

	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO users (chat_id) VALUES ($1)
		ON CONFLICT (chat_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
		RETURNING premium, created_at, updated_at`, chatID)
	if err := row.Scan(&u.Premium, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	wallets, err := r.ListWallets(ctx, chatID)
	if err != nil {
		return nil, err
	}
	u.Wallets = wallets
	return u, nil
}

func (r *UserRepo) Save(ctx context.Context, user *domain.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (chat_id, premium) VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE SET premium = $2, updated_at = now()`,
		user.ChatID, user.Premium); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_wallets WHERE chat_id = $1`, user.ChatID); err != nil {
		return fmt.Errorf("failed to clear wallets: %w", err)
	}
	for _, addr := range user.Wallets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_wallets (chat_id, address) VALUES ($1, $2)`,
			user.ChatID, addr); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}
	}
	return tx.Commit()
}

func (r *UserRepo) AddWallet(ctx context.Context, chatID int64, address string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The upsert takes a row lock on the user, serializing concurrent
	// AddWallet calls for the same chat until commit.
	var premium bool
	row := tx.QueryRowContext(ctx, `
		INSERT INTO users (chat_id) VALUES ($1)
		ON CONFLICT (chat_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
		RETURNING premium`, chatID)
	if err := row.Scan(&premium); err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM user_wallets WHERE chat_id = $1`,
		chatID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count wallets: %w", err)
	}
	if !premium && count >= r.freeLimit {
		return storage.ErrWalletLimit
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO user_wallets (chat_id, address) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, chatID, address)
	if err != nil {
		return fmt.Errorf("failed to add wallet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrDuplicateWallet
	}
	return tx.Commit()
}

func (r *UserRepo) RemoveWallets(ctx context.Context, chatID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM user_wallets WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("failed to remove wallets: %w", err)
	}
	return nil
}

func (r *UserRepo) ListWallets(ctx context.Context, chatID int64) ([]string, error) {
	var wallets []string
	if err := r.db.SelectContext(ctx, &wallets,
		`SELECT address FROM user_wallets WHERE chat_id = $1 ORDER BY created_at`,
		chatID); err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}

func (r *UserRepo) ChatsTracking(ctx context.Context, address string) ([]int64, error) {
	var chats []int64
	if err := r.db.SelectContext(ctx, &chats,
		`SELECT chat_id FROM user_wallets WHERE address = $1 ORDER BY chat_id`,
		address); err != nil {
		return nil, fmt.Errorf("failed to find tracking chats: %w", err)
	}
	return chats, nil
}

func (r *UserRepo) SetPremium(ctx context.Context, chatID int64, premium bool) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, premium) VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE SET premium = $2, updated_at = now()`,
		chatID, premium); err != nil {
		return fmt.Errorf("failed to set premium: %w", err)
	}
	return nil
}

func (r *UserRepo) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		`TRUNCATE users, user_wallets, payment_requests`); err != nil {
		return fmt.Errorf("failed to reset users: %w", err)
	}
	return nil
}

var _ storage.UserRepository = (*UserRepo)(nil)
