package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/trenchlabs/trenchbot/internal/core/domain"
	"github.com/trenchlabs/trenchbot/internal/infra/storage"
)

// Store persists users as a single JSON document keyed by chat id.
// Every mutation rewrites the whole file; a process-wide mutex plus
// temp-file-and-rename keeps concurrent handlers from losing updates.
type Store struct {
	path      string
	freeLimit int

	mu    sync.Mutex
	users map[int64]*userRecord
}

type userRecord struct {
	Wallets walletList `json:"wallets"`
	Premium bool       `json:"premium"`
}

// walletList accepts both the current string form and the legacy
// {address, paid} object form found in older data files.
type walletList []string

func (w *walletList) UnmarshalJSON(data []byte) error {
	var plain []string
	if err := json.Unmarshal(data, &plain); err == nil {
		*w = plain
		return nil
	}
	var objs []struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &objs); err != nil {
		return err
	}
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Address)
	}
	*w = out
	return nil
}

// NewStore opens (or creates) the data file and loads it into memory.
func NewStore(path string, freeLimit int) (*Store, error) {
	if freeLimit <= 0 {
		freeLimit = 1
	}
	s := &Store{path: path, freeLimit: freeLimit, users: make(map[int64]*userRecord)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse data file: %w", err)
	}

	for key, val := range raw {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat id %q in data file: %w", key, err)
		}

		rec := &userRecord{}
		if err := json.Unmarshal(val, rec); err != nil {
			// Legacy format: chat id maps straight to a list of addresses.
			var wallets walletList
			if lerr := json.Unmarshal(val, &wallets); lerr != nil {
				return fmt.Errorf("invalid record for chat %s: %w", key, err)
			}
			rec = &userRecord{Wallets: wallets}
		}
		s.users[chatID] = rec
	}
	return nil
}

// flush must be called with the lock held.
func (s *Store) flush() error {
	doc := make(map[string]*userRecord, len(s.users))
	for id, rec := range s.users {
		doc[strconv.FormatInt(id, 10)] = rec
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

func (s *Store) record(chatID int64) *userRecord {
	rec, ok := s.users[chatID]
	if !ok {
		rec = &userRecord{}
		s.users[chatID] = rec
	}
	return rec
}

func (s *Store) Get(ctx context.Context, chatID int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(chatID)
	return recordToUser(chatID, rec), nil
}

func (s *Store) Save(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ChatID] = &userRecord{
		Wallets: append(walletList(nil), user.Wallets...),
		Premium: user.Premium,
	}
	return s.flush()
}

func (s *Store) AddWallet(ctx context.Context, chatID int64, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(chatID)
	for _, w := range rec.Wallets {
		if w == address {
			return storage.ErrDuplicateWallet
		}
	}
	if !rec.Premium && len(rec.Wallets) >= s.freeLimit {
		return storage.ErrWalletLimit
	}
	rec.Wallets = append(rec.Wallets, address)
	return s.flush()
}

func (s *Store) RemoveWallets(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(chatID)
	rec.Wallets = nil
	return s.flush()
}

func (s *Store) ListWallets(ctx context.Context, chatID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[chatID]
	if !ok {
		return nil, nil
	}
	out := make([]string, len(rec.Wallets))
	copy(out, rec.Wallets)
	return out, nil
}

func (s *Store) ChatsTracking(ctx context.Context, address string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var chats []int64
	for id, rec := range s.users {
		for _, w := range rec.Wallets {
			if w == address {
				chats = append(chats, id)
				break
			}
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return chats, nil
}

func (s *Store) SetPremium(ctx context.Context, chatID int64, premium bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(chatID)
	rec.Premium = premium
	return s.flush()
}

func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[int64]*userRecord)
	return s.flush()
}

func recordToUser(chatID int64, rec *userRecord) *domain.User {
	u := domain.NewUser(chatID)
	u.Wallets = append([]string(nil), rec.Wallets...)
	u.Premium = rec.Premium
	return u
}
