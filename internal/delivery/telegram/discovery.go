package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sonofthenation/arcanum/internal/domain"
	"github.com/sonofthenation/arcanum/internal/usecase"
	"github.com/sonofthenation/arcanum/pkg/prometheus"
)

// Viewer surface: /start with deep links, random pick, genre browsing,
// title search and watch history.

const historyLimit = 10

// mainKeyboard is the persistent reply keyboard; its labels double as
// command aliases in handleMessage.
var mainKeyboard = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("🔄Рандом"),
		tgbotapi.NewKeyboardButton("🎥По жанрам"),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("🔎Поиск"),
		tgbotapi.NewKeyboardButton("⌛️История"),
	),
)

func (b *Bot) handleStart(ctx context.Context, chatID, userID int64, args string) {
	if strings.HasPrefix(args, "m") {
		b.handleDeepLink(ctx, chatID, userID, args)
		return
	}

	text := strings.Join([]string{
		"Привет! Я бот-каталог фильмов. 🎬",
		"",
		"Что я умею:",
		"🔄Рандом — случайный фильм из базы",
		"🎥По жанрам — просмотр каталога по жанрам",
		"🔎Поиск — поиск фильма по названию",
		"⌛️История — последние просмотренные фильмы",
	}, "\n")

	b.sendMessageKB(chatID, text, mainKeyboard)
}

// handleDeepLink resolves a t.me/...?start=m<id> payload. A broken or
// dangling link reports politely and leaves history untouched.
func (b *Bot) handleDeepLink(ctx context.Context, chatID, userID int64, payload string) {
	movieID, err := strconv.ParseInt(payload[1:], 10, 64)
	if err != nil || movieID <= 0 {
		b.SendMessage(chatID, "Неверная ссылка. Проверьте её и попробуйте ещё раз.")
		return
	}

	movie, genres, err := b.catalog.MovieDetail(ctx, movieID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		b.SendMessage(chatID, "Фильм по этой ссылке не найден.")
		return
	}
	if err != nil {
		b.log.Error("Ошибка загрузки фильма", chatIDKey, chatID, errorKey, err)
		b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
		return
	}

	b.deliverMovie(ctx, chatID, userID, movie, genres)
}

// deliverMovie sends the movie as video, falling back to a document
// for file ids Telegram refuses to play, and records the watch.
func (b *Bot) deliverMovie(ctx context.Context, chatID, userID int64, movie domain.Movie, genres []string) {
	caption := buildMovieCaption(movie.Title, genres, movie.Director)
	kb := buildMovieLinkKB(movie.ID)

	switch {
	case movie.FileID == "":
		b.sendMessageKB(chatID, caption, kb)
	default:
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(movie.FileID))
		video.Caption = caption
		video.ReplyMarkup = kb
		if _, err := b.api.Send(video); err != nil {
			b.log.Warn("Видео не отправилось, пробую документом",
				chatIDKey, chatID, "movie_id", movie.ID, errorKey, err)

			doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(movie.FileID))
			doc.Caption = caption
			doc.ReplyMarkup = kb
			if _, err := b.api.Send(doc); err != nil {
				b.log.Error("Ошибка отправки фильма", chatIDKey, chatID, "movie_id", movie.ID, errorKey, err)
				b.SendMessage(chatID, "Не удалось отправить фильм. Попробуйте ещё раз позже.")
				return
			}
		}
		prometheus.MessagesSent.WithLabelValues("video").Inc()
	}

	if err := b.catalog.RecordWatch(ctx, userID, movie.ID); err != nil {
		// delivery already happened, history is best effort
		b.log.Error("Ошибка записи истории", userIDKey, userID, "movie_id", movie.ID, errorKey, err)
	}
}

func (b *Bot) handleRandom(ctx context.Context, chatID, userID int64) {
	summary, err := b.catalog.RandomMovie(ctx)
	if errors.Is(err, domain.ErrRecordNotFound) {
		b.SendMessage(chatID, "В базе пока нет фильмов.")
		return
	}
	if err != nil {
		b.log.Error("Ошибка выбора случайного фильма", chatIDKey, chatID, errorKey, err)
		b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
		return
	}

	b.deliverMovie(ctx, chatID, userID, domain.Movie{
		ID:       summary.ID,
		Title:    summary.Title,
		Director: summary.Director,
		FileID:   summary.FileID,
	}, splitGenresCSV(summary.Genres))
}

// ---- genre browsing ----

func (b *Bot) handleByGenre(ctx context.Context, chatID int64) {
	kb, empty, err := b.buildGenreListKB(ctx)
	if err != nil {
		b.log.Error("Ошибка загрузки жанров", chatIDKey, chatID, errorKey, err)
		b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
		return
	}
	if empty {
		b.SendMessage(chatID, "Жанров пока нет.")
		return
	}

	b.sendMessageKB(chatID, "🎥 Выберите жанр:", kb)
}

func (b *Bot) buildGenreListKB(ctx context.Context) (tgbotapi.InlineKeyboardMarkup, bool, error) {
	genres, err := b.catalog.ListGenres(ctx)
	if err != nil || len(genres) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, len(genres) == 0, err
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(genres))
	for _, g := range genres {
		emoji, ok := genreEmojis[g.Name]
		if !ok {
			emoji = defaultGenreEmoji
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				emoji+" "+capitalize(g.Name),
				fmt.Sprintf("genre|%d|0", g.ID),
			),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), false, nil
}

// cbGenresList brings the genre picker back in place of a movie list.
func (b *Bot) cbGenresList(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID

	kb, empty, err := b.buildGenreListKB(ctx)
	if err != nil {
		b.log.Error("Ошибка загрузки жанров", chatIDKey, chatID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}
	if empty {
		b.alertCallback(callback.ID, "Жанров пока нет.")
		return
	}

	b.editText(chatID, callback.Message.MessageID, "🎥 Выберите жанр:", &kb)
	b.answerCallback(callback.ID, "")
}

func (b *Bot) cbGenrePage(ctx context.Context, callback *tgbotapi.CallbackQuery, action genrePage) {
	chatID := callback.Message.Chat.ID

	name, err := b.catalog.GetGenreName(ctx, action.GenreID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		b.alertCallback(callback.ID, "Жанр не найден. Возможно, он был удалён.")
		return
	}
	if err != nil {
		b.log.Error("Ошибка загрузки жанра", chatIDKey, chatID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}

	total, err := b.catalog.CountMoviesByGenre(ctx, action.GenreID)
	if err != nil {
		b.log.Error("Ошибка подсчёта фильмов", chatIDKey, chatID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}
	if total == 0 {
		b.alertCallback(callback.ID, "В этом жанре пока нет фильмов.")
		return
	}

	page := usecase.ClampPage(action.Page, total)
	maxPage := usecase.MaxPage(total)

	rows, err := b.catalog.ListMoviesByGenrePage(ctx, action.GenreID, page*usecase.PageSize, usecase.PageSize)
	if err != nil {
		b.log.Error("Ошибка загрузки страницы фильмов", chatIDKey, chatID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows)+2)
	for _, movie := range rows {
		kbRows = append(kbRows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				movie.Title,
				fmt.Sprintf("movie|%d", movie.ID),
			),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", fmt.Sprintf("genre|%d|%d", action.GenreID, page-1)))
	}
	if page < maxPage {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Вперёд ➡️", fmt.Sprintf("genre|%d|%d", action.GenreID, page+1)))
	}
	if len(nav) > 0 {
		kbRows = append(kbRows, nav)
	}
	kbRows = append(kbRows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("↩️ К жанрам", "genres_list"),
	))

	kb := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	text := fmt.Sprintf("🎥 <b>%s</b> — страница %d из %d\nВыберите фильм:",
		capitalize(name), page+1, maxPage+1)

	b.editText(chatID, callback.Message.MessageID, text, &kb)
	b.answerCallback(callback.ID, "")
}

func (b *Bot) cbMoviePick(ctx context.Context, callback *tgbotapi.CallbackQuery, action moviePick) {
	chatID := callback.Message.Chat.ID

	movie, genres, err := b.catalog.MovieDetail(ctx, action.MovieID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		b.alertCallback(callback.ID, "Фильм не найден. Возможно, он был удалён.")
		return
	}
	if err != nil {
		b.log.Error("Ошибка загрузки фильма", chatIDKey, chatID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}

	b.answerCallback(callback.ID, "")
	b.deliverMovie(ctx, chatID, callback.From.ID, movie, genres)
}

// cbCopyLink drops the deep link into the chat as plain text, ready to
// long-press and copy.
func (b *Bot) cbCopyLink(ctx context.Context, callback *tgbotapi.CallbackQuery, action copyLink) {
	b.SendMessage(callback.Message.Chat.ID, b.movieLink(action.MovieID))
	b.answerCallback(callback.ID, "Ссылка отправлена.")
}

// ---- search ----

func (b *Bot) handleSearchEntry(ctx context.Context, chatID, userID int64) {
	b.openDialog(userID, domain.FlowSearch, &domain.DialogState{
		Stage: domain.StageWaitingQuery,
	})

	b.SendMessage(chatID, "🔎 Введите название фильма или его часть.\n\nДля отмены используйте /cancel.")
}

// consumeSearchQuery is the single turn of the search flow: any
// non-empty text closes the dialog and answers with matches.
func (b *Bot) consumeSearchQuery(ctx context.Context, chatID, userID int64, text string) {
	if text == "" {
		b.SendMessage(chatID, "Запрос не может быть пустым. Попробуйте ещё раз или используйте /cancel.")
		return
	}

	movies, err := b.catalog.SearchMovies(ctx, text)
	if err != nil {
		b.reportStoreFailure(ctx, chatID, userID, domain.FlowSearch, "SearchMovies", err)
		return
	}

	b.closeDialog(userID, domain.FlowSearch)

	if len(movies) == 0 {
		b.SendMessage(chatID, "Ничего не найдено. Попробуйте /search с другим запросом.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(movies))
	for _, movie := range movies {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				movie.Title,
				fmt.Sprintf("movie|%d", movie.ID),
			),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)

	b.sendMessageKB(chatID, fmt.Sprintf("🔎 Найдено: %d\nВыберите фильм:", len(movies)), kb)
}

// ---- history ----

func (b *Bot) handleHistory(ctx context.Context, chatID, userID int64) {
	entries, err := b.catalog.UserHistory(ctx, userID, historyLimit)
	if err != nil {
		b.log.Error("Ошибка загрузки истории", chatIDKey, chatID, errorKey, err)
		b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
		return
	}
	if len(entries) == 0 {
		b.SendMessage(chatID, "⌛️ История пока пуста. Посмотрите что-нибудь!")
		return
	}

	lines := []string{"⌛️ <b>Последние просмотренные фильмы</b>", ""}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entries))
	for i, entry := range entries {
		lines = append(lines, fmt.Sprintf("%d. <b>%s</b> — %s (%s)",
			i+1,
			entry.Title,
			formatGenresDisplay(splitGenresCSV(entry.Genres)),
			entry.WatchedAt.Format("02.01.2006 15:04"),
		))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%d. %s", i+1, entry.Title),
				fmt.Sprintf("movie|%d", entry.MovieID),
			),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)

	b.sendMessageKB(chatID, strings.Join(lines, "\n"), kb)
}
