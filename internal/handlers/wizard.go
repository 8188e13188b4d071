package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-portrait-studio/internal/studio"
	"ai-portrait-studio/internal/style"
)

const callbackPrefix = "ps"

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil {
		return nil
	}
	data := strings.TrimSpace(q.Data)
	if !strings.HasPrefix(data, callbackPrefix+":") {
		return nil
	}

	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil
	}

	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "This menu belongs to someone else.", true)
		return nil
	}

	action := parts[2]
	args := parts[3:]
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID
	key := sessionKey(chatID, ownerID)

	switch action {
	case "style":
		if len(args) < 1 {
			return nil
		}
		if _, err := h.controller.SelectStyle(key, args[0]); err != nil {
			_ = h.tg.AnswerCallback(q.ID, "Unknown style.", false)
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, "Style selected.", false)
	case "clear_custom":
		h.controller.SetFreeText(key, "")
		_ = h.tg.AnswerCallback(q.ID, "Custom instruction cleared.", false)
	case "generate":
		sess := h.controller.Session(key)
		switch {
		case sess.Generating:
			_ = h.tg.AnswerCallback(q.ID, "Already generating, hold on…", false)
			return nil
		case sess.Image == nil:
			_ = h.tg.AnswerCallback(q.ID, "Send a photo first.", false)
		default:
			_ = h.tg.AnswerCallback(q.ID, "Generating…", false)
			if err := h.generate(ctx, chatID, ownerID); err != nil {
				return err
			}
		}
	case "reset":
		h.controller.Reset(key)
		h.forgetMessage(key)
		_ = h.tg.AnswerCallback(q.ID, "Session cleared.", false)
	default:
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
	}

	return h.renderWizard(chatID, ownerID, msgID, true)
}

func (h *Handler) renderWizard(chatID, userID int64, messageID int, edit bool) error {
	key := sessionKey(chatID, userID)
	sess := h.controller.Session(key)

	text := wizardText(sess)
	kb := wizardKeyboard(userID, sess)

	if messageID == 0 {
		messageID = h.lastMessage(key)
	}
	if edit && messageID != 0 {
		if err := h.tg.EditTextWithKeyboard(chatID, messageID, text, kb); err == nil {
			return nil
		}
	}

	msgID, err := h.tg.SendTextWithKeyboard(chatID, text, kb)
	if err != nil {
		return err
	}
	h.rememberMessage(key, msgID)
	return nil
}

func wizardText(sess studio.Session) string {
	var b strings.Builder
	b.WriteString("🎨 AI Portrait Studio\n\n")

	if name := styleName(sess.StyleID); name != "" {
		b.WriteString("Style: " + name + "\n")
	}
	if custom := strings.TrimSpace(sess.FreeText); custom != "" {
		b.WriteString("Custom: " + truncateLine(custom, 80) + "\n")
	}

	switch {
	case sess.Generating:
		b.WriteString("\n⏳ " + sess.StatusMessage() + "\n")
	case sess.Phase == studio.PhaseIdle:
		b.WriteString("Photo: (none)\n\n📷 Send me a photo to begin.\n")
	case sess.HasResult():
		b.WriteString("Photo: saved ✅\n\n✨ Portrait delivered above. Pick another style to try again, or /reset.\n")
	default:
		b.WriteString("Photo: saved ✅\n\n🎨 Pick a style and press Generate.\n")
		b.WriteString("✍️ Send any text message to add a custom instruction.\n")
	}

	if sess.ErrorMessage != "" {
		b.WriteString("\n❌ " + sess.ErrorMessage + "\n")
	}

	return strings.TrimSpace(b.String())
}

func wizardKeyboard(ownerID int64, sess studio.Session) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, p := range style.Catalog() {
		label := p.Name
		if p.ID == sess.StyleID {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "style", p.ID)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	if strings.TrimSpace(sess.FreeText) != "" {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✍️ Clear custom text", cb(ownerID, "clear_custom")),
		})
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🎨 Generate", cb(ownerID, "generate")),
		tgbotapi.NewInlineKeyboardButtonData("♻️ Reset", cb(ownerID, "reset")),
	})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", callbackPrefix, ownerID, strings.Join(parts, ":"))
}

func styleName(id string) string {
	if p, ok := style.ByID(id); ok {
		return p.Name
	}
	return ""
}

func decodeResult(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

func truncateLine(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
