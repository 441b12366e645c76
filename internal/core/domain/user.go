package domain

import "time"

// User represents a Telegram chat registered with the bot.
type User struct {
	ChatID    int64     `json:"chat_id"`
	Wallets   []string  `json:"wallets"`
	Premium   bool      `json:"premium"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewUser returns a default user record for a chat.
func NewUser(chatID int64) *User {
	now := time.Now()
	return &User{ChatID: chatID, CreatedAt: now, UpdatedAt: now}
}

// Tracks reports whether the user already tracks the given address.
func (u *User) Tracks(address string) bool {
	for _, w := range u.Wallets {
		if w == address {
			return true
		}
	}
	return false
}
