package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sonofthenation/arcanum/internal/domain"
	"github.com/sonofthenation/arcanum/pkg/prometheus"
)

const (
	chatIDKey  = "chat_id"
	userIDKey  = "user_id"
	commandKey = "command"
	errorKey   = "error"
	successKey = "success"
	queryKey   = "query"
)

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage routes one inbound message. Cancel is a universal
// override; after that an open dialog claims the input before command
// matching gets a chance.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if msg.IsCommand() && msg.Command() == "cancel" {
		b.handleCancel(ctx, chatID, userID)
		return
	}

	// While the add flow collects title or director it consumes every
	// non-cancel input, commands included.
	if state, ok := b.dialogs.Get(userID, domain.FlowAdd); ok {
		switch state.Stage {
		case domain.StageWaitingTitle, domain.StageWaitingDirector:
			b.consumeAddText(ctx, chatID, userID, text)
			return
		case domain.StageChoosingGenres:
			if !msg.IsCommand() {
				b.SendMessage(chatID, "Сейчас идёт выбор жанров.\nПожалуйста, используйте кнопки под сообщением.\n\nЕсли хотите отменить — /cancel.")
				return
			}
		}
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if state, ok := b.dialogs.Get(userID, domain.FlowEdit); ok {
		b.consumeEditText(ctx, chatID, userID, state, text)
		return
	}
	if _, ok := b.dialogs.Get(userID, domain.FlowGenreAdd); ok {
		b.consumeGenreName(ctx, chatID, userID, text)
		return
	}
	if _, ok := b.dialogs.Get(userID, domain.FlowSearch); ok {
		b.consumeSearchQuery(ctx, chatID, userID, text)
		return
	}

	// reply-keyboard aliases
	switch msg.Text {
	case "🔄Рандом":
		b.handleRandom(ctx, chatID, userID)
	case "🎥По жанрам":
		b.handleByGenre(ctx, chatID)
	case "🔎Поиск":
		b.handleSearchEntry(ctx, chatID, userID)
	case "⌛️История":
		b.handleHistory(ctx, chatID, userID)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID
	userID := msg.From.ID

	startTime := time.Now()
	defer func() {
		prometheus.CommandDuration.WithLabelValues(command).Observe(time.Since(startTime).Seconds())
	}()

	status := successKey
	defer func() {
		prometheus.CommandCounter.WithLabelValues(command, status).Inc()
	}()

	b.log.Info("Команда получена",
		chatIDKey, chatID, userIDKey, userID, commandKey, command, queryKey, args)

	switch command {
	case "start":
		b.handleStart(ctx, chatID, userID, args)
	case "admin":
		b.handleAdmin(ctx, chatID, userID)
	case "add":
		b.handleAddEntry(ctx, msg)
	case "add_genre":
		b.handleAddGenreEntry(ctx, chatID, userID)
	case "genres_admin":
		b.handleGenresAdmin(ctx, chatID, userID)
	case "edit":
		b.handleEditEntry(ctx, chatID, userID)
	case "delete":
		b.handleDeleteEntry(ctx, chatID, userID)
	case "movies_admin":
		b.handleMoviesAdmin(ctx, chatID, userID)
	case "link":
		b.handleLink(ctx, chatID, userID, args)
	case "random":
		b.handleRandom(ctx, chatID, userID)
	case "by_genre":
		b.handleByGenre(ctx, chatID)
	case "search":
		b.handleSearchEntry(ctx, chatID, userID)
	case "history":
		b.handleHistory(ctx, chatID, userID)
	default:
		status = errorKey
		b.SendMessage(chatID, "Неизвестная команда.\nВведите /start для списка возможностей.")
	}
}

func (b *Bot) handleCancel(ctx context.Context, chatID, userID int64) {
	closed := b.dialogs.CloseAll(userID)
	prometheus.ActiveDialogs.Sub(float64(closed))

	if closed > 0 {
		b.SendMessage(chatID, "❌ Текущая операция отменена.")
	} else {
		b.SendMessage(chatID, "Сейчас нечего отменять.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		b.answerCallback(callback.ID, "")
		return
	}

	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	action, err := parseCallback(callback.Data)
	if err != nil {
		b.log.Error("Некорректный callback",
			chatIDKey, chatID, userIDKey, userID, "data", callback.Data, errorKey, err)
		b.alertCallback(callback.ID, "Ошибка данных.")
		return
	}

	switch a := action.(type) {
	// add flow
	case addGenreToggle:
		b.cbAddGenreToggle(ctx, callback, a)
	case addGenresDone:
		b.cbAddGenresDone(ctx, callback)

	// edit flow
	case editGenreToggle:
		b.cbEditGenreToggle(ctx, callback, a)
	case editGenresDone:
		b.cbEditGenresDone(ctx, callback)
	case editGenresKeep:
		b.cbEditGenresKeep(ctx, callback)
	case editGenresClose:
		b.cbEditGenresCancel(ctx, callback)
	case editPage:
		b.cbEditPage(ctx, callback, a)
	case editPick:
		b.cbEditPick(ctx, callback, a)

	// delete flow
	case deletePage:
		b.cbDeletePage(ctx, callback, a)
	case deletePick:
		b.cbDeletePick(ctx, callback, a)
	case deleteConfirm:
		b.cbDeleteConfirm(ctx, callback, a)
	case deleteDecline:
		b.cbDeleteDecline(ctx, callback, a)

	// admin listing
	case adminMoviesPage:
		b.cbAdminMoviesPage(ctx, callback, a)
	case adminMoviesGenres:
		b.cbAdminMoviesGenres(ctx, callback)
	case adminMoviesByGenre:
		b.cbAdminMoviesByGenre(ctx, callback, a)

	// genre admin
	case genreDelete:
		b.cbGenreDelete(ctx, callback, a)

	// discovery
	case genresList:
		b.cbGenresList(ctx, callback)
	case genrePage:
		b.cbGenrePage(ctx, callback, a)
	case moviePick:
		b.cbMoviePick(ctx, callback, a)
	case copyLink:
		b.cbCopyLink(ctx, callback, a)

	default:
		b.answerCallback(callback.ID, "")
	}
}
