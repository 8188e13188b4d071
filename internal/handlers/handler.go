package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-portrait-studio/internal/studio"
	"ai-portrait-studio/internal/telegram"
)

type Options struct {
	Telegram   *telegram.Client
	Controller *studio.Controller
	Logger     *slog.Logger
}

type Handler struct {
	tg         *telegram.Client
	controller *studio.Controller
	logger     *slog.Logger

	mu     sync.Mutex
	msgIDs map[string]int
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tg:         opts.Telegram,
		controller: opts.Controller,
		logger:     logger,
		msgIDs:     make(map[string]int),
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}

	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		return h.handleCommand(chatID, userID, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, userID, msg)
	}

	if strings.TrimSpace(msg.Text) != "" {
		return h.handleText(chatID, userID, msg.Text)
	}

	return nil
}

func (h *Handler) handleCommand(chatID, userID int64, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return h.tg.SendText(chatID,
			"🎨 AI Portrait Studio\n\n"+
				"Send me a photo and I will turn it into a stylized portrait.\n\n"+
				"Commands:\n"+
				"/start - Show this message\n"+
				"/help - How it works\n"+
				"/reset - Start over",
		)
	case "help":
		return h.tg.SendText(chatID,
			"🎨 How it works\n\n"+
				"1. Send a photo (JPEG, PNG, WEBP or HEIC, up to 10 MiB).\n"+
				"2. Pick a style from the menu.\n"+
				"3. Optionally send a text message with extra instructions.\n"+
				"4. Hit Generate and wait for your portrait.\n\n"+
				"/reset starts over at any time.",
		)
	case "reset":
		key := sessionKey(chatID, userID)
		h.controller.Reset(key)
		h.forgetMessage(key)
		if err := h.tg.SendText(chatID, "♻️ Session cleared. Send a photo to begin."); err != nil {
			return err
		}
		return h.renderWizard(chatID, userID, 0, false)
	default:
		return h.tg.SendText(chatID, "Unknown command. Try /help.")
	}
}

func (h *Handler) handlePhoto(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	// Telegram sends several sizes per photo; the last one is the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	h.tg.SendTyping(chatID)

	data, mimeType, err := h.tg.DownloadPhoto(ctx, fileID)
	if err != nil {
		h.logger.Error("photo download failed", "err", err)
		return h.tg.SendText(chatID, "❌ Could not download that photo. Please try again.")
	}

	key := sessionKey(chatID, userID)
	if _, err := h.controller.AttachUpload(key, mimeType, int64(len(data)), bytes.NewReader(data)); err != nil {
		return h.tg.SendText(chatID, "❌ "+err.Error())
	}

	if caption := strings.TrimSpace(msg.Caption); caption != "" {
		h.controller.SetFreeText(key, caption)
	}

	return h.renderWizard(chatID, userID, 0, false)
}

// handleText treats any plain text as the free-text customization for the
// current portrait.
func (h *Handler) handleText(chatID, userID int64, text string) error {
	key := sessionKey(chatID, userID)
	sess := h.controller.Session(key)
	if sess.Phase == studio.PhaseIdle {
		return h.tg.SendText(chatID, "📷 Send a photo first, then tell me how to customize it.")
	}

	h.controller.SetFreeText(key, strings.TrimSpace(text))
	return h.renderWizard(chatID, userID, 0, false)
}

func (h *Handler) generate(ctx context.Context, chatID, userID int64) error {
	key := sessionKey(chatID, userID)

	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "🎨 Generating your portrait, this can take a minute...")

	sess, err := h.controller.Generate(ctx, key)
	if err != nil {
		h.logger.Error("generation failed", "err", err)
		return h.tg.SendText(chatID, "❌ "+err.Error()+"\nYou can retry or pick another style.")
	}
	if !sess.HasResult() {
		// Another trigger was already in flight; its own delivery will follow.
		return nil
	}

	png, err := decodeResult(sess.ResultBase64)
	if err != nil {
		h.logger.Error("result decode failed", "err", err)
		return h.tg.SendText(chatID, "❌ The generated image came back corrupted. Please retry.")
	}

	caption := "✅ Done!"
	if name := styleName(sess.StyleID); name != "" {
		caption = fmt.Sprintf("✅ Done! Style: %s", name)
	}
	return h.tg.SendPortrait(chatID, png, caption)
}

func sessionKey(chatID, userID int64) string {
	return fmt.Sprintf("tg:%d:%d", chatID, userID)
}

func (h *Handler) rememberMessage(key string, msgID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgIDs[key] = msgID
}

func (h *Handler) lastMessage(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.msgIDs[key]
}

// forgetMessage drops the tracked wizard message for a session so the map does
// not keep entries for cleared sessions.
func (h *Handler) forgetMessage(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.msgIDs, key)
}
