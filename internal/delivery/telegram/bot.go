package telegram

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sonofthenation/arcanum/configs"
	"github.com/sonofthenation/arcanum/internal/domain"
	"github.com/sonofthenation/arcanum/internal/repository/dialogStates"
	"github.com/sonofthenation/arcanum/pkg/prometheus"
)

// maxMessageLen is the truncation threshold for outbound text, kept
// under Telegram's 4096-character message cap.
const maxMessageLen = 4000

type Bot struct {
	api     TelegramAPI
	catalog CatalogProvider
	dialogs *dialogStates.Registry

	// verified holds operators who passed /admin. Updates are handled
	// on a single goroutine, so plain map access is safe.
	verified map[int64]struct{}

	username string
	adminID  int64
	log      *slog.Logger
}

func NewBot(config *configs.Config, dialogs *dialogStates.Registry, catalog CatalogProvider, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.TG.Token)
	if err != nil {
		return nil, err
	}
	api.Client = &http.Client{
		Timeout: config.TG.ConnectionTimeout,
	}

	return &Bot{
		api:      api,
		catalog:  catalog,
		dialogs:  dialogs,
		verified: make(map[int64]struct{}),
		username: config.TG.BotUsername,
		adminID:  config.TG.AdminID,
		log:      log,
	}, nil
}

// Run consumes updates until the channel closes. Every update is
// handled to completion before the next one is dequeued, so dialog
// state mutations never interleave.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
}

func (b *Bot) Stop(ctx context.Context) {
	b.api.StopReceivingUpdates()
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	if len(text) > maxMessageLen {
		// back off to a rune boundary so the cut never leaves
		// invalid UTF-8
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	if err != nil {
		b.log.Error("Ошибка отправки сообщения", "chatID", chatID, "error", err)
		return err
	}
	prometheus.MessagesSent.WithLabelValues("text").Inc()
	return nil
}

func (b *Bot) sendMessageKB(chatID int64, text string, kb any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = kb
	_, err := b.api.Send(msg)
	if err != nil {
		b.log.Error("Ошибка отправки сообщения", "chatID", chatID, "error", err)
		return err
	}
	prometheus.MessagesSent.WithLabelValues("text").Inc()
	return nil
}

func (b *Bot) editText(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = kb
	_, err := b.api.Send(edit)
	if err != nil {
		b.log.Error("Ошибка редактирования сообщения", "chatID", chatID, "error", err)
	}
	return err
}

func (b *Bot) editMarkup(chatID int64, messageID int, kb tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, kb)
	_, err := b.api.Send(edit)
	if err != nil {
		b.log.Error("Ошибка редактирования клавиатуры", "chatID", chatID, "error", err)
	}
	return err
}

// answerCallback acknowledges a button press without an alert.
func (b *Bot) answerCallback(callbackID string, text string) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		b.log.Debug("Ошибка ответа на callback", "error", err)
	}
}

// alertCallback shows a popup alert for a button press.
func (b *Bot) alertCallback(callbackID string, text string) {
	cfg := tgbotapi.NewCallbackWithAlert(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		b.log.Debug("Ошибка ответа на callback", "error", err)
	}
}

// openDialog registers a flow state for the user, replacing a previous
// one of the same kind, and keeps the active-dialogs gauge in step.
func (b *Bot) openDialog(userID int64, flow domain.FlowKind, state *domain.DialogState) *domain.DialogState {
	if _, exists := b.dialogs.Get(userID, flow); !exists {
		prometheus.ActiveDialogs.Inc()
	}
	return b.dialogs.Open(userID, flow, state)
}

func (b *Bot) closeDialog(userID int64, flow domain.FlowKind) {
	if b.dialogs.Close(userID, flow) {
		prometheus.ActiveDialogs.Dec()
	}
}

func (b *Bot) isVerified(userID int64) bool {
	_, ok := b.verified[userID]
	return ok
}

// reportStoreFailure handles an unexpected catalog fault: the open
// dialog of that flow is destroyed defensively and the user gets a
// generic message with no internal detail.
func (b *Bot) reportStoreFailure(ctx context.Context, chatID, userID int64, flow domain.FlowKind, operation string, err error) {
	prometheus.StoreFailures.WithLabelValues(operation).Inc()

	correlationID := ""
	if state, ok := b.dialogs.Get(userID, flow); ok {
		correlationID = state.CorrelationID
	}
	b.log.ErrorContext(ctx, "Ошибка хранилища",
		chatIDKey, chatID,
		userIDKey, userID,
		"operation", operation,
		"correlation_id", correlationID,
		errorKey, err,
	)

	b.closeDialog(userID, flow)
	b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
