package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sonofthenation/arcanum/internal/domain"
)

// Add-movie flow: /add in reply to a media message, then
// waiting_title -> waiting_director -> choosing_genres -> commit.

func (b *Bot) handleAddEntry(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if !b.isVerified(userID) {
		b.SendMessage(chatID, "У вас нет прав добавлять фильмы. Введите /admin.")
		return
	}

	if msg.ReplyToMessage == nil {
		b.SendMessage(chatID, "Ответьте командой /add на сообщение с фильмом или файлом.")
		return
	}

	var fileID string
	switch {
	case msg.ReplyToMessage.Video != nil:
		fileID = msg.ReplyToMessage.Video.FileID
	case msg.ReplyToMessage.Document != nil:
		fileID = msg.ReplyToMessage.Document.FileID
	default:
		b.SendMessage(chatID, "Не вижу видео или файла в сообщении, на которое вы ответили.")
		return
	}

	state := b.openDialog(userID, domain.FlowAdd, &domain.DialogState{
		Stage:  domain.StageWaitingTitle,
		FileID: fileID,
	})
	b.log.Info("Добавление фильма начато",
		chatIDKey, chatID, userIDKey, userID, "correlation_id", state.CorrelationID)

	b.SendMessage(chatID, "Окей. Напишите название фильма.")
}

// consumeAddText advances the waiting_title and waiting_director
// stages. The input is taken verbatim after trimming; empty is a legal
// title and an empty director means "unknown".
func (b *Bot) consumeAddText(ctx context.Context, chatID, userID int64, text string) {
	state, ok := b.dialogs.Get(userID, domain.FlowAdd)
	if !ok {
		return
	}

	switch state.Stage {
	case domain.StageWaitingTitle:
		b.dialogs.Advance(userID, domain.FlowAdd, func(s *domain.DialogState) {
			s.Title = text
			s.Stage = domain.StageWaitingDirector
		})
		b.SendMessage(chatID, "Записал название. Теперь напишите режиссёра (можно просто имя или «не знаю»).")

	case domain.StageWaitingDirector:
		genres, err := b.catalog.ListGenres(ctx)
		if err != nil {
			b.reportStoreFailure(ctx, chatID, userID, domain.FlowAdd, "ListGenres", err)
			return
		}
		if len(genres) == 0 {
			b.closeDialog(userID, domain.FlowAdd)
			b.SendMessage(chatID, "Пока нет ни одного жанра. Сначала добавьте жанры через /add_genre.")
			return
		}

		b.dialogs.Advance(userID, domain.FlowAdd, func(s *domain.DialogState) {
			s.Director = text
			s.Stage = domain.StageChoosingGenres
			s.Selected = make(map[int64]struct{})
		})

		kb := buildGenreSelectKB(genres, nil, genreSelectAdd)
		b.sendMessageKB(chatID,
			"Теперь выберите жанры для фильма.\nМожно нажать несколько жанров, затем кнопку «✅ Готово».",
			kb,
		)
	}
}

// cbAddGenreToggle flips one genre in the selection set and redraws the
// keyboard in place. A stale press (dialog gone or past this stage) is
// acknowledged silently.
func (b *Bot) cbAddGenreToggle(ctx context.Context, callback *tgbotapi.CallbackQuery, action addGenreToggle) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	state, ok := b.dialogs.Get(userID, domain.FlowAdd)
	if !ok || state.Stage != domain.StageChoosingGenres {
		b.answerCallback(callback.ID, "")
		return
	}

	b.dialogs.Advance(userID, domain.FlowAdd, func(s *domain.DialogState) {
		s.ToggleGenre(action.GenreID)
	})

	genres, err := b.catalog.ListGenres(ctx)
	if err != nil {
		b.log.Error("Ошибка загрузки жанров", chatIDKey, chatID, errorKey, err)
		b.answerCallback(callback.ID, "")
		return
	}

	b.editMarkup(chatID, callback.Message.MessageID, buildGenreSelectKB(genres, state.Selected, genreSelectAdd))
	b.answerCallback(callback.ID, "")
}

// cbAddGenresDone commits the new movie. An empty selection is a
// user-visible, non-terminal refusal: at least one genre is mandatory.
func (b *Bot) cbAddGenresDone(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	state, ok := b.dialogs.Get(userID, domain.FlowAdd)
	if !ok || state.Stage != domain.StageChoosingGenres {
		b.answerCallback(callback.ID, "")
		return
	}

	if len(state.Selected) == 0 {
		b.alertCallback(callback.ID, "Выберите хотя бы один жанр.")
		return
	}

	genreIDs := state.SelectedIDs()
	movieID, err := b.catalog.CreateMovie(ctx, state.Title, state.Director, state.FileID, genreIDs)
	if err != nil {
		b.reportStoreFailure(ctx, chatID, userID, domain.FlowAdd, "CreateMovie", err)
		b.answerCallback(callback.ID, "")
		return
	}

	names, err := b.catalog.GenreNamesByID(ctx)
	if err != nil {
		names = map[int64]string{}
	}
	genreNames := make([]string, 0, len(genreIDs))
	for _, gid := range genreIDs {
		if name, ok := names[gid]; ok {
			genreNames = append(genreNames, name)
		}
	}

	title := state.Title
	director := state.Director
	b.closeDialog(userID, domain.FlowAdd)

	lines := []string{
		"✅ Фильм добавлен в базу.",
		"id: " + formatID(movieID),
		"Название: " + title,
		"Жанры: " + strings.Join(genreNames, ", "),
	}
	if director != "" {
		lines = append(lines, "Режиссёр: "+director)
	}

	b.editText(chatID, callback.Message.MessageID, strings.Join(lines, "\n"), nil)
	b.answerCallback(callback.ID, "Фильм сохранён.")
}
