package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/trenchlabs/trenchbot/internal/alert"
	"github.com/trenchlabs/trenchbot/internal/bot"
	"github.com/trenchlabs/trenchbot/internal/core/config"
	"github.com/trenchlabs/trenchbot/internal/infra/helius"
	"github.com/trenchlabs/trenchbot/internal/infra/price"
	redisclient "github.com/trenchlabs/trenchbot/internal/infra/redis"
	"github.com/trenchlabs/trenchbot/internal/infra/solana"
	"github.com/trenchlabs/trenchbot/internal/infra/storage"
	"github.com/trenchlabs/trenchbot/internal/infra/storage/file"
	"github.com/trenchlabs/trenchbot/internal/infra/storage/memory"
	"github.com/trenchlabs/trenchbot/internal/infra/storage/postgres"
	"github.com/trenchlabs/trenchbot/internal/payment"
	"github.com/trenchlabs/trenchbot/internal/server"
)

// Bot is the main application struct that manages the service lifecycle.
type Bot struct {
	cfg         *config.AppConfig
	tg          *tgbotapi.BotAPI
	handler     *bot.Handler
	dispatcher  *alert.Dispatcher
	server      *server.Server
	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger
}

// logSender stands in for Telegram delivery when no bot token is
// configured (local runs, tests).
type logSender struct{}

func (logSender) Send(chatID int64, text string) error {
	slog.Info("Alert (telegram disabled)", "chat", chatID, "text", text)
	return nil
}

// NewBot creates a Bot instance with all dependencies initialized.
func NewBot(cfg *config.AppConfig) (*Bot, error) {
	log := slog.Default()

	// 1. Storage: database wins over file path, memory is the fallback.
	var (
		users    storage.UserRepository
		payments storage.PaymentRepository
		db       *postgres.DB
	)
	checks := make(map[string]server.HealthChecker)

	switch {
	case cfg.Storage.Database.URL != "":
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Storage.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		users = postgres.NewUserRepo(db, cfg.Bot.FreeWalletLimit)
		payments = postgres.NewPaymentRepo(db)
		checks["database"] = db
		log.Info("Using PostgreSQL storage")
	case cfg.Storage.Path != "":
		fileStore, err := file.NewStore(cfg.Storage.Path, cfg.Bot.FreeWalletLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to init file store: %w", err)
		}
		users = fileStore
		// Pending payment requests do not survive a restart on this
		// backend; the premium flag they produce does.
		payments = memory.NewPaymentRepo(memory.NewMemoryStorage())
		log.Info("Using file storage", "path", cfg.Storage.Path)
	default:
		store := memory.NewMemoryStorage()
		users = memory.NewUserRepo(store, cfg.Bot.FreeWalletLimit)
		payments = memory.NewPaymentRepo(store)
		log.Info("Using memory storage")
	}

	// 2. Redis de-duplication (optional).
	var (
		redisClient *redisclient.Client
		dedup       alert.Deduper = alert.NopDeduper{}
	)
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		dedup = redisClient
		checks["redis"] = redisClient
		log.Info("Using Redis de-duplication")
	}

	// 3. Chain and provider clients.
	sol := solana.NewRPCClient(cfg.Solana.RPCURL, cfg.Solana.Commitment)
	registrar := helius.New(helius.Config{
		APIURL:           cfg.Helius.APIURL,
		APIKey:           cfg.Helius.APIKey,
		WebhookBaseURL:   cfg.Helius.WebhookBaseURL,
		TransactionTypes: helius.DefaultTransactionTypes,
		Retry:            helius.DefaultRetryConfig,
	})
	priceClient := price.New(cfg.Price.APIURL)

	verifier := payment.NewVerifier(payment.Config{
		DevWallet:   cfg.Premium.DevWallet,
		FeeLamports: cfg.Premium.FeeLamports,
		ScanLimit:   cfg.Premium.ScanLimit,
		RequestTTL:  cfg.Premium.RequestTTLDuration(),
	}, users, payments, sol)

	// 4. Telegram API. An empty token disables the conversation surface
	// but keeps the webhook receiver running.
	var (
		tg      *tgbotapi.BotAPI
		handler *bot.Handler
		sender  alert.Sender = logSender{}
	)
	if cfg.Telegram.Token != "" {
		var err error
		tg, err = tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to init telegram bot: %w", err)
		}
		handler = bot.NewHandler(tg, users, verifier, registrar, priceClient, bot.Config{
			FreeWalletLimit: cfg.Bot.FreeWalletLimit,
			AwaitingTimeout: cfg.Bot.AwaitingTimeoutDuration(),
			DevWallet:       cfg.Premium.DevWallet,
			FeeLamports:     cfg.Premium.FeeLamports,
		})
		sender = bot.NewTelegramSender(tg)
		log.Info("Telegram bot initialized", "username", tg.Self.UserName)
	} else {
		log.Warn("Telegram token missing, running webhook receiver only")
	}

	dispatcher := alert.NewDispatcher(users, sender, dedup, cfg.Redis.DedupTTLDuration())
	srv := server.NewServer(dispatcher, checks, cfg.Server.Port)

	return &Bot{
		cfg:         cfg,
		tg:          tg,
		handler:     handler,
		dispatcher:  dispatcher,
		server:      srv,
		db:          db,
		redisClient: redisClient,
		log:         log,
	}, nil
}

// Start starts the HTTP server and the Telegram update loop.
func (b *Bot) Start(ctx context.Context) error {
	go func() {
		b.log.Info("HTTP server listening", "port", b.cfg.Server.Port)
		if err := b.server.Start(); err != nil && err != http.ErrServerClosed {
			b.log.Error("HTTP server failed", "error", err)
		}
	}()

	if b.tg != nil {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates := b.tg.GetUpdatesChan(u)

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case update, ok := <-updates:
					if !ok {
						return
					}
					b.handler.HandleUpdate(ctx, update)
				}
			}
		}()
	}

	return nil
}

// Stop stops the bot.
func (b *Bot) Stop(ctx context.Context) error {
	b.log.Info("Stopping bot...")

	if b.tg != nil {
		b.tg.StopReceivingUpdates()
	}

	if b.redisClient != nil {
		if err := b.redisClient.Close(); err != nil {
			b.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.log.Warn("Failed to close database", "error", err)
		}
	}

	return b.server.Stop(ctx)
}
