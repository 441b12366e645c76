package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/trenchlabs/trenchbot/internal/core/domain"
	"github.com/trenchlabs/trenchbot/internal/infra/storage"
	"github.com/trenchlabs/trenchbot/internal/metrics"
	"github.com/trenchlabs/trenchbot/internal/payment"
)

// API is the slice of the Telegram bot API the handler uses.
// *tgbotapi.BotAPI satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Registrar subscribes an address for transaction notifications.
type Registrar interface {
	Register(ctx context.Context, address string) error
}

// PriceSource returns the SOL/USD spot price.
type PriceSource interface {
	SolUSD(ctx context.Context) (float64, error)
}

// PaymentService handles premium upgrade requests and verification.
type PaymentService interface {
	Request(ctx context.Context, chatID int64, payer string) (*domain.PaymentRequest, error)
	Verify(ctx context.Context, chatID int64) (bool, error)
	HasBalance(ctx context.Context, wallet string) bool
}

// Config holds conversation settings.
type Config struct {
	FreeWalletLimit int
	AwaitingTimeout time.Duration
	DevWallet       string
	FeeLamports     uint64
}

// session is the per-user conversation state:
// idle -> awaiting_wallet_input -> idle. Abandoned flows expire after
// the configured timeout.
type session struct {
	awaitingWallet bool
	since          time.Time
}

// Handler dispatches Telegram updates to the bot's features.
type Handler struct {
	api       API
	users     storage.UserRepository
	payments  PaymentService
	registrar Registrar
	price     PriceSource
	cfg       Config
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewHandler creates a conversation handler.
func NewHandler(api API, users storage.UserRepository, payments PaymentService, registrar Registrar, price PriceSource, cfg Config) *Handler {
	if cfg.FreeWalletLimit <= 0 {
		cfg.FreeWalletLimit = 1
	}
	if cfg.AwaitingTimeout <= 0 {
		cfg.AwaitingTimeout = 10 * time.Minute
	}
	return &Handler{
		api:       api,
		users:     users,
		payments:  payments,
		registrar: registrar,
		price:     price,
		cfg:       cfg,
		log:       slog.Default(),
		sessions:  make(map[int64]*session),
	}
}

// HandleUpdate processes a single Telegram update.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		h.handleCommand(ctx, update.Message)
	case update.Message != nil:
		h.handleText(ctx, update.Message)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()
	metrics.CommandsHandled.WithLabelValues(cmd).Inc()

	switch cmd {
	case "start":
		h.start(ctx, chatID, msg.From)
	case "menu":
		h.sendMenu(chatID)
	case "addwallet":
		h.startAddWallet(ctx, chatID)
	case "mywallets":
		h.listWallets(ctx, chatID)
	case "removewallets":
		h.removeWallets(ctx, chatID)
	case "price":
		h.sendPrice(ctx, chatID)
	case "premium":
		h.verifyPremium(ctx, chatID)
	default:
		h.reply(chatID, "🤔 Unknown command. Try /menu.")
	}
}

func (h *Handler) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if h.awaiting(chatID) {
		if !domain.ValidAddress(text) {
			// Stay in the flow: the user gets another try.
			h.reply(chatID, "❌ That doesn't look like a valid Solana wallet. Try again.")
			return
		}
		h.endAwaiting(chatID)
		h.addWallet(ctx, chatID, text)
		return
	}

	// A bare address outside the flow is treated as an add attempt.
	if domain.ValidAddress(text) {
		h.addWallet(ctx, chatID, text)
		return
	}

	h.reply(chatID, "💡 Send /menu to see what I can do.")
}

func (h *Handler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	metrics.CommandsHandled.WithLabelValues(cq.Data).Inc()

	// Acknowledge the tap so the client stops spinning.
	if _, err := h.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		h.log.Warn("Callback ack failed", "error", err)
	}

	switch cq.Data {
	case "view_wallets":
		h.listWallets(ctx, chatID)
	case "add_wallet":
		h.startAddWallet(ctx, chatID)
	case "sol_price":
		h.sendPrice(ctx, chatID)
	case "copy_trade":
		h.copyTrade(ctx, chatID)
	case "upgrade_premium":
		h.upgradePremium(ctx, chatID)
	case "back_to_menu":
		h.sendMenu(chatID)
	}
}

func (h *Handler) start(ctx context.Context, chatID int64, from *tgbotapi.User) {
	if _, err := h.users.Get(ctx, chatID); err != nil {
		h.log.Error("User lookup failed", "chat", chatID, "error", err)
	}

	name := "friend"
	if from != nil && from.FirstName != "" {
		name = from.FirstName
	}
	h.replyMarkdown(chatID, fmt.Sprintf(
		"👋 Hey %s!\nI'm *TrenchBot*, your personal Solana wallet watcher.\n\n"+
			"💡 Send me a wallet address to start tracking it.\n"+
			"You'll get instant alerts when transactions happen!", name))
}

func (h *Handler) startAddWallet(ctx context.Context, chatID int64) {
	u, err := h.users.Get(ctx, chatID)
	if err != nil {
		h.log.Error("User lookup failed", "chat", chatID, "error", err)
		h.replyError(chatID)
		return
	}

	if !u.Premium && len(u.Wallets) >= h.cfg.FreeWalletLimit {
		h.sendUpgradePrompt(chatID)
		return
	}

	h.beginAwaiting(chatID)
	h.replyMarkdown(chatID, "🔹 Send me the *wallet address* you want to watch:")
}

// addWallet runs the full registration flow: limit gate, webhook
// subscription, then the store write. The webhook goes first so a wallet
// is never tracked locally without alerts arriving for it.
func (h *Handler) addWallet(ctx context.Context, chatID int64, address string) {
	u, err := h.users.Get(ctx, chatID)
	if err != nil {
		h.log.Error("User lookup failed", "chat", chatID, "error", err)
		h.replyError(chatID)
		return
	}

	if u.Tracks(address) {
		h.reply(chatID, "👀 You're already watching that wallet.")
		return
	}

	if !u.Premium && len(u.Wallets) >= h.cfg.FreeWalletLimit {
		// Legacy gate: a payer balance at or above the fee counts as paid.
		if !h.payments.HasBalance(ctx, address) {
			h.sendUpgradePrompt(chatID)
			return
		}
	}

	if err := h.registrar.Register(ctx, address); err != nil {
		h.log.Error("Webhook registration failed", "chat", chatID, "error", err)
		h.reply(chatID, "⚠️ Something went wrong registering your webhook. Please try again later.")
		return
	}

	switch err := h.users.AddWallet(ctx, chatID, address); {
	case errors.Is(err, storage.ErrDuplicateWallet):
		h.reply(chatID, "👀 You're already watching that wallet.")
	case errors.Is(err, storage.ErrWalletLimit):
		h.sendUpgradePrompt(chatID)
	case err != nil:
		h.log.Error("Wallet store failed", "chat", chatID, "error", err)
		h.replyError(chatID)
	default:
		h.replyMarkdown(chatID, fmt.Sprintf(
			"✅ Now watching wallet:\n`%s`\nI'll alert you about transactions.", address))
	}
}

func (h *Handler) listWallets(ctx context.Context, chatID int64) {
	wallets, err := h.users.ListWallets(ctx, chatID)
	if err != nil {
		h.log.Error("Wallet list failed", "chat", chatID, "error", err)
		h.replyError(chatID)
		return
	}
	if len(wallets) == 0 {
		h.reply(chatID, "👀 You aren't watching any wallets yet. Use /addwallet to get started.")
		return
	}

	var b strings.Builder
	b.WriteString("📊 *Your tracked wallets:*\n\n")
	for i, w := range wallets {
		fmt.Fprintf(&b, "%d. `%s`\n", i+1, w)
	}
	h.replyMarkdown(chatID, b.String())
}

func (h *Handler) removeWallets(ctx context.Context, chatID int64) {
	if err := h.users.RemoveWallets(ctx, chatID); err != nil {
		h.log.Error("Wallet removal failed", "chat", chatID, "error", err)
		h.replyError(chatID)
		return
	}
	h.reply(chatID, "🗑 All wallets deleted. You can now add a new one.")
}

func (h *Handler) sendPrice(ctx context.Context, chatID int64) {
	p, err := h.price.SolUSD(ctx)
	if err != nil {
		h.log.Error("Price lookup failed", "error", err)
		h.replyError(chatID)
		return
	}

	advice := "🟢 Time to load up, soldier."
	if p > 200 {
		advice = "🚀 We moonin', strap in."
	} else if p < 80 {
		advice = "🧠 Smart money's buying this dip."
	}
	h.replyMarkdown(chatID, fmt.Sprintf("💰 *SOL Price:* $%.2f\n\n%s", p, advice))
}

func (h *Handler) upgradePremium(ctx context.Context, chatID int64) {
	u, err := h.users.Get(ctx, chatID)
	if err != nil {
		h.log.Error("User lookup failed", "chat", chatID, "error", err)
		h.replyError(chatID)
		return
	}
	if u.Premium {
		h.reply(chatID, "💎 You're already premium — unlimited wallets unlocked.")
		return
	}
	if len(u.Wallets) == 0 {
		h.reply(chatID, "🔹 Add a wallet first with /addwallet so I know which address will pay.")
		return
	}

	req, err := h.payments.Request(ctx, chatID, u.Wallets[0])
	if err != nil {
		h.log.Error("Payment request failed", "chat", chatID, "error", err)
		h.replyError(chatID)
		return
	}

	fee := float64(req.AmountLamports) / 1e9
	h.replyMarkdown(chatID, fmt.Sprintf(
		"💎 To unlock unlimited wallets, send *%g SOL* from `%s` to:\n\n`%s`\n\n"+
			"Once done, tap /premium to verify your payment.",
		fee, req.Payer, h.cfg.DevWallet))
}

func (h *Handler) verifyPremium(ctx context.Context, chatID int64) {
	h.reply(chatID, "⏳ Checking for your payment on-chain... hang tight.")

	ok, err := h.payments.Verify(ctx, chatID)
	switch {
	case errors.Is(err, payment.ErrNoRequest):
		h.reply(chatID, "💡 Tap the upgrade button in /menu first, then pay and try again.")
	case err != nil:
		h.log.Error("Payment verification failed", "chat", chatID, "error", err)
		h.replyError(chatID)
	case ok:
		h.reply(chatID, "✅ Payment confirmed! You're now premium — unlimited wallets unlocked.")
	default:
		h.reply(chatID, "❌ No payment found yet. Try again in a few minutes or double-check the address.")
	}
}

func (h *Handler) copyTrade(ctx context.Context, chatID int64) {
	wallets, err := h.users.ListWallets(ctx, chatID)
	if err == nil && len(wallets) == 0 {
		h.reply(chatID, "You need at least one wallet to copy trade.")
		return
	}
	h.reply(chatID, "🔥 Copy trade setup coming up! Answer a few quick ones:\n\n"+
		"1️⃣ Risk level? (low / medium / high)\n"+
		"2️⃣ Trade allocation? (%)\n"+
		"3️⃣ Stop loss & take profit targets?")
}

// -----------------------------------------------------------------------------
// Session state
// -----------------------------------------------------------------------------

func (h *Handler) beginAwaiting(chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[chatID] = &session{awaitingWallet: true, since: time.Now()}
}

func (h *Handler) endAwaiting(chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, chatID)
}

// awaiting reports whether the chat is in the add-wallet flow, expiring
// abandoned flows as a side effect.
func (h *Handler) awaiting(chatID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[chatID]
	if !ok || !s.awaitingWallet {
		return false
	}
	if time.Since(s.since) > h.cfg.AwaitingTimeout {
		delete(h.sessions, chatID)
		return false
	}
	return true
}

// -----------------------------------------------------------------------------
// Replies
// -----------------------------------------------------------------------------

func (h *Handler) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		h.log.Error("Reply failed", "chat", chatID, "error", err)
	}
}

func (h *Handler) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.api.Send(msg); err != nil {
		h.log.Error("Reply failed", "chat", chatID, "error", err)
	}
}

func (h *Handler) replyError(chatID int64) {
	h.reply(chatID, "😓 Something went wrong on my end. Please try again later.")
}

func (h *Handler) sendUpgradePrompt(chatID int64) {
	msg := tgbotapi.NewMessage(chatID,
		"⚠️ Free users can only track *1 wallet.*\n\n"+
			"Upgrade to premium to unlock unlimited wallets.")
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = upgradeKeyboard()
	if _, err := h.api.Send(msg); err != nil {
		h.log.Error("Upgrade prompt failed", "chat", chatID, "error", err)
	}
}

func (h *Handler) sendMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "📋 What do you want to do?")
	msg.ReplyMarkup = mainMenuKeyboard()
	if _, err := h.api.Send(msg); err != nil {
		h.log.Error("Menu failed", "chat", chatID, "error", err)
	}
}
