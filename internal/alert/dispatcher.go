package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trenchlabs/trenchbot/internal/core/domain"
	"github.com/trenchlabs/trenchbot/internal/infra/storage"
	"github.com/trenchlabs/trenchbot/internal/metrics"
)

// Sender delivers a text message to a chat.
type Sender interface {
	Send(chatID int64, text string) error
}

// Deduper marks a signature as seen and reports prior sightings.
type Deduper interface {
	Seen(ctx context.Context, signature string, ttl time.Duration) (bool, error)
}

// NopDeduper never suppresses anything. Used when Redis is not configured.
type NopDeduper struct{}

func (NopDeduper) Seen(ctx context.Context, signature string, ttl time.Duration) (bool, error) {
	return false, nil
}

// Dispatcher fans webhook events out to every chat tracking the affected
// address. One chat's delivery failure never aborts the rest of a batch.
type Dispatcher struct {
	users    storage.UserRepository
	sender   Sender
	dedup    Deduper
	dedupTTL time.Duration
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher. dedup may be nil to disable
// delivery de-duplication.
func NewDispatcher(users storage.UserRepository, sender Sender, dedup Deduper, dedupTTL time.Duration) *Dispatcher {
	if dedup == nil {
		dedup = NopDeduper{}
	}
	if dedupTTL <= 0 {
		dedupTTL = 24 * time.Hour
	}
	return &Dispatcher{
		users:    users,
		sender:   sender,
		dedup:    dedup,
		dedupTTL: dedupTTL,
		log:      slog.Default(),
	}
}

// Dispatch processes a batch of events from the provider webhook.
func (d *Dispatcher) Dispatch(ctx context.Context, events []domain.TransactionEvent) error {
	start := time.Now()
	defer func() {
		metrics.DispatchLatency.Observe(time.Since(start).Seconds())
	}()

	for _, event := range events {
		metrics.EventsReceived.Inc()
		if event.Account == "" {
			continue
		}

		seen, err := d.dedup.Seen(ctx, event.Signature, d.dedupTTL)
		if err != nil {
			// Dedup is best effort: on error we alert rather than drop.
			d.log.Warn("Dedup check failed", "signature", event.Signature, "error", err)
		} else if seen {
			metrics.EventsDeduplicated.Inc()
			d.log.Debug("Skipping duplicate delivery", "signature", event.Signature)
			continue
		}

		chats, err := d.users.ChatsTracking(ctx, event.Account)
		if err != nil {
			d.log.Error("Reverse lookup failed", "account", event.Account, "error", err)
			continue
		}

		text := alertText(event)
		for _, chatID := range chats {
			if err := d.sender.Send(chatID, text); err != nil {
				metrics.AlertFailures.Inc()
				d.log.Error("Alert delivery failed",
					"chat", chatID, "signature", event.Signature, "error", err)
				continue
			}
			metrics.AlertsSent.Inc()
		}
	}
	return nil
}

func alertText(event domain.TransactionEvent) string {
	if event.Type != "" {
		return fmt.Sprintf("💥 %s alert for %s\n🔗 %s",
			event.Type, event.Account, domain.SolscanTxURL(event.Signature))
	}
	return fmt.Sprintf("💥 Transaction alert for %s\n🔗 %s",
		event.Account, domain.SolscanTxURL(event.Signature))
}
