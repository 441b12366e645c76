package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trenchlabs/trenchbot/internal/core/domain"
	"github.com/trenchlabs/trenchbot/internal/infra/storage"
)

// MemoryStorage keeps users and payment requests in process memory.
// Used for tests and zero-config runs.
type MemoryStorage struct {
	users    map[int64]*domain.User
	payments map[int64][]*domain.PaymentRequest
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:    make(map[int64]*domain.User),
		payments: make(map[int64][]*domain.PaymentRequest),
	}
}

// -----------------------------------------------------------------------------
// User Repository
// -----------------------------------------------------------------------------

type UserRepo struct {
	store     *MemoryStorage
	freeLimit int
}

func NewUserRepo(store *MemoryStorage, freeLimit int) *UserRepo {
	if freeLimit <= 0 {
		freeLimit = 1
	}
	return &UserRepo{store: store, freeLimit: freeLimit}
}

func (r *UserRepo) Get(ctx context.Context, chatID int64) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.getOrCreate(chatID), nil
}

// getOrCreate must be called with the lock held.
func (r *UserRepo) getOrCreate(chatID int64) *domain.User {
	u, ok := r.store.users[chatID]
	if !ok {
		u = domain.NewUser(chatID)
		r.store.users[chatID] = u
	}
	return copyUser(u)
}

func (r *UserRepo) Save(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user.UpdatedAt = time.Now()
	r.store.users[user.ChatID] = copyUser(user)
	return nil
}

func (r *UserRepo) AddWallet(ctx context.Context, chatID int64, address string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[chatID]
	if !ok {
		u = domain.NewUser(chatID)
		r.store.users[chatID] = u
	}
	if u.Tracks(address) {
		return storage.ErrDuplicateWallet
	}
	if !u.Premium && len(u.Wallets) >= r.freeLimit {
		return storage.ErrWalletLimit
	}
	u.Wallets = append(u.Wallets, address)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *UserRepo) RemoveWallets(ctx context.Context, chatID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[chatID]; ok {
		u.Wallets = nil
		u.UpdatedAt = time.Now()
	}
	return nil
}

func (r *UserRepo) ListWallets(ctx context.Context, chatID int64) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[chatID]
	if !ok {
		return nil, nil
	}
	out := make([]string, len(u.Wallets))
	copy(out, u.Wallets)
	return out, nil
}

func (r *UserRepo) ChatsTracking(ctx context.Context, address string) ([]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var chats []int64
	for id, u := range r.store.users {
		if u.Tracks(address) {
			chats = append(chats, id)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return chats, nil
}

func (r *UserRepo) SetPremium(ctx context.Context, chatID int64, premium bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[chatID]
	if !ok {
		u = domain.NewUser(chatID)
		r.store.users[chatID] = u
	}
	u.Premium = premium
	u.UpdatedAt = time.Now()
	return nil
}

func (r *UserRepo) Reset(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users = make(map[int64]*domain.User)
	return nil
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Wallets = make([]string, len(u.Wallets))
	copy(c.Wallets, u.Wallets)
	return &c
}

// -----------------------------------------------------------------------------
// Payment Repository
// -----------------------------------------------------------------------------

type PaymentRepo struct {
	store *MemoryStorage
}

func NewPaymentRepo(store *MemoryStorage) *PaymentRepo {
	return &PaymentRepo{store: store}
}

func (r *PaymentRepo) Create(ctx context.Context, req *domain.PaymentRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *req
	r.store.payments[req.ChatID] = append(r.store.payments[req.ChatID], &c)
	return nil
}

func (r *PaymentRepo) Latest(ctx context.Context, chatID int64) (*domain.PaymentRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	reqs := r.store.payments[chatID]
	if len(reqs) == 0 {
		return nil, storage.ErrPaymentNotFound
	}
	c := *reqs[len(reqs)-1]
	return &c, nil
}

func (r *PaymentRepo) UpdateState(ctx context.Context, id string, state domain.PaymentState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, reqs := range r.store.payments {
		for _, req := range reqs {
			if req.ID == id {
				req.State = state
				return nil
			}
		}
	}
	return storage.ErrPaymentNotFound
}
