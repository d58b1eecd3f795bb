package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sonofthenation/arcanum/internal/domain"
	"github.com/sonofthenation/arcanum/internal/usecase"
	"github.com/sonofthenation/arcanum/pkg/prometheus"
)

// Administrator surface: /admin verification, the paginated catalog
// listing with genre filter, the delete flow and genre management.
// Listing and delete navigation is stateless: page and movie id travel
// in the callback payload, so no DialogState is involved.

var adminCommands = []tgbotapi.BotCommand{
	{Command: "add", Description: "Добавить фильм (ответом на видео)"},
	{Command: "edit", Description: "Изменить фильм"},
	{Command: "delete", Description: "Удалить фильм"},
	{Command: "movies_admin", Description: "Список фильмов"},
	{Command: "add_genre", Description: "Добавить жанр"},
	{Command: "genres_admin", Description: "Управление жанрами"},
	{Command: "link", Description: "Ссылки на фильмы по поиску"},
	{Command: "cancel", Description: "Отменить текущую операцию"},
}

func (b *Bot) handleAdmin(ctx context.Context, chatID, userID int64) {
	if userID != b.adminID {
		b.SendMessage(chatID, "Нет прав.")
		return
	}

	if b.isVerified(userID) {
		b.SendMessage(chatID, "Вы уже авторизованы как администратор.")
		return
	}

	b.verified[userID] = struct{}{}

	scope := tgbotapi.NewBotCommandScopeChat(chatID)
	if _, err := b.api.Request(tgbotapi.NewSetMyCommandsWithScope(scope, adminCommands...)); err != nil {
		b.log.Error("Ошибка установки меню команд", chatIDKey, chatID, errorKey, err)
	}

	b.log.InfoContext(ctx, "Администратор авторизован", chatIDKey, chatID, userIDKey, userID)

	b.SendMessage(chatID, strings.Join([]string{
		"✅ Вы авторизованы как администратор.",
		"",
		"Доступные команды:",
		"/add — добавить фильм (ответом на видео)",
		"/edit — изменить фильм",
		"/delete — удалить фильм",
		"/movies_admin — список фильмов",
		"/add_genre — добавить жанр",
		"/genres_admin — управление жанрами",
		"/link — ссылки на фильмы по поиску",
	}, "\n"))
}

// ---- catalog listing ----

func (b *Bot) handleMoviesAdmin(ctx context.Context, chatID, userID int64) {
	if !b.isVerified(userID) {
		b.SendMessage(chatID, "Эта команда доступна только администратору.")
		return
	}
	b.sendAdminMoviesPage(ctx, chatID, 0, 0, 0)
}

// sendAdminMoviesPage renders one listing page. genreID zero means no
// filter. messageID zero sends a new message, otherwise edits in place.
func (b *Bot) sendAdminMoviesPage(ctx context.Context, chatID int64, messageID int, genreID int64, page int) {
	total, rows, genreName, err := b.adminPageData(ctx, genreID, page)
	if err != nil {
		b.log.Error("Ошибка загрузки списка фильмов", chatIDKey, chatID, errorKey, err)
		b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
		return
	}
	if total == 0 {
		text := "В базе пока нет фильмов."
		if genreID != 0 {
			text = "В этом жанре пока нет фильмов."
		}
		if messageID == 0 {
			b.SendMessage(chatID, text)
		} else {
			b.editText(chatID, messageID, text, nil)
		}
		return
	}

	maxPage := usecase.MaxPage(total)

	header := fmt.Sprintf("📋 <b>Фильмы в базе</b> (всего: %d)", total)
	if genreID != 0 {
		header = fmt.Sprintf("📋 <b>Фильмы жанра «%s»</b> (всего: %d)", genreName, total)
	}

	blocks := []string{
		header,
		fmt.Sprintf("Страница <b>%d</b> из <b>%d</b>", page+1, maxPage+1),
	}
	for _, movie := range rows {
		blocks = append(blocks, b.formatAdminMovieBlock(movie.ID, movie.Title, movie.Genres, movie.Director, movie.FileID))
	}
	text := strings.Join(blocks, "\n\n")

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", b.adminPageCallback(genreID, page-1)))
	}
	if page < maxPage {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Вперёд ➡️", b.adminPageCallback(genreID, page+1)))
	}

	var kbRows [][]tgbotapi.InlineKeyboardButton
	if len(nav) > 0 {
		kbRows = append(kbRows, nav)
	}
	if genreID == 0 {
		kbRows = append(kbRows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎭 Фильтр по жанру", "adm_movies_genres"),
		))
	} else {
		kbRows = append(kbRows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Все фильмы", "adm_movies|0"),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(kbRows...)

	if messageID == 0 {
		b.sendMessageKB(chatID, text, kb)
	} else {
		b.editText(chatID, messageID, text, &kb)
	}
}

func (b *Bot) adminPageData(ctx context.Context, genreID int64, page int) (int, []domain.MovieSummary, string, error) {
	if genreID == 0 {
		total, err := b.catalog.CountMovies(ctx)
		if err != nil || total == 0 {
			return total, nil, "", err
		}
		rows, err := b.catalog.ListMoviesPage(ctx, page*usecase.PageSize, usecase.PageSize)
		return total, rows, "", err
	}

	name, err := b.catalog.GetGenreName(ctx, genreID)
	if err != nil {
		return 0, nil, "", err
	}
	total, err := b.catalog.CountMoviesByGenre(ctx, genreID)
	if err != nil || total == 0 {
		return total, nil, name, err
	}
	rows, err := b.catalog.ListMoviesByGenrePage(ctx, genreID, page*usecase.PageSize, usecase.PageSize)
	return total, rows, name, err
}

func (b *Bot) adminPageCallback(genreID int64, page int) string {
	if genreID == 0 {
		return fmt.Sprintf("adm_movies|%d", page)
	}
	return fmt.Sprintf("adm_movies_g|%d|%d", genreID, page)
}

// adminPageValid recomputes the page bound at click time; listings go
// stale while they sit on screen.
func (b *Bot) adminPageValid(ctx context.Context, genreID int64, page int) (bool, error) {
	var (
		total int
		err   error
	)
	if genreID == 0 {
		total, err = b.catalog.CountMovies(ctx)
	} else {
		total, err = b.catalog.CountMoviesByGenre(ctx, genreID)
	}
	if err != nil {
		return false, err
	}
	return page >= 0 && (total == 0 && page == 0 || page <= usecase.MaxPage(total)), nil
}

func (b *Bot) cbAdminMoviesPage(ctx context.Context, callback *tgbotapi.CallbackQuery, action adminMoviesPage) {
	b.adminMoviesNavigate(ctx, callback, 0, action.Page)
}

func (b *Bot) cbAdminMoviesByGenre(ctx context.Context, callback *tgbotapi.CallbackQuery, action adminMoviesByGenre) {
	b.adminMoviesNavigate(ctx, callback, action.GenreID, action.Page)
}

func (b *Bot) adminMoviesNavigate(ctx context.Context, callback *tgbotapi.CallbackQuery, genreID int64, page int) {
	if !b.isVerified(callback.From.ID) {
		b.alertCallback(callback.ID, "Нет прав.")
		return
	}

	ok, err := b.adminPageValid(ctx, genreID, page)
	if err != nil {
		b.log.Error("Ошибка подсчёта фильмов", chatIDKey, callback.Message.Chat.ID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}
	if !ok {
		b.alertCallback(callback.ID, "Такой страницы нет.")
		return
	}

	b.sendAdminMoviesPage(ctx, callback.Message.Chat.ID, callback.Message.MessageID, genreID, page)
	b.answerCallback(callback.ID, "")
}

func (b *Bot) cbAdminMoviesGenres(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if !b.isVerified(callback.From.ID) {
		b.alertCallback(callback.ID, "Нет прав.")
		return
	}

	genres, err := b.catalog.ListGenres(ctx)
	if err != nil {
		b.log.Error("Ошибка загрузки жанров", chatIDKey, callback.Message.Chat.ID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}
	if len(genres) == 0 {
		b.alertCallback(callback.ID, "Жанров пока нет.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(genres)+1)
	for _, g := range genres {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				capitalize(g.Name),
				fmt.Sprintf("adm_movies_g|%d|0", g.ID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("↩️ Все фильмы", "adm_movies|0"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)

	b.editText(callback.Message.Chat.ID, callback.Message.MessageID, "🎭 Выберите жанр:", &kb)
	b.answerCallback(callback.ID, "")
}

// ---- delete flow ----

func (b *Bot) handleDeleteEntry(ctx context.Context, chatID, userID int64) {
	if !b.isVerified(userID) {
		b.SendMessage(chatID, "Эта команда доступна только администратору.")
		return
	}

	total, err := b.catalog.CountMovies(ctx)
	if err != nil {
		b.log.Error("Ошибка подсчёта фильмов", chatIDKey, chatID, errorKey, err)
		b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
		return
	}
	if total == 0 {
		b.SendMessage(chatID, "В базе пока нет фильмов.")
		return
	}

	b.sendDeletePage(ctx, chatID, 0, 0)
}

// sendDeletePage mirrors the edit picker with delete verbs. The page is
// clamped, which also walks the view back when the last movie of the
// final page is removed.
func (b *Bot) sendDeletePage(ctx context.Context, chatID int64, messageID int, page int) {
	total, err := b.catalog.CountMovies(ctx)
	if err != nil {
		b.log.Error("Ошибка подсчёта фильмов", chatIDKey, chatID, errorKey, err)
		b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
		return
	}
	if total == 0 {
		text := "В базе пока нет фильмов."
		if messageID == 0 {
			b.SendMessage(chatID, text)
		} else {
			b.editText(chatID, messageID, text, nil)
		}
		return
	}

	page = usecase.ClampPage(page, total)
	maxPage := usecase.MaxPage(total)
	offset := page * usecase.PageSize

	rows, err := b.catalog.ListMoviesPage(ctx, offset, usecase.PageSize)
	if err != nil {
		b.log.Error("Ошибка загрузки страницы фильмов", chatIDKey, chatID, errorKey, err)
		b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
		return
	}

	lines := []string{
		"🗑 <b>Удаление фильма</b>",
		fmt.Sprintf("Страница <b>%d</b> из <b>%d</b>", page+1, maxPage+1),
		fmt.Sprintf("Всего фильмов: <b>%d</b>", total),
		"",
		"Выберите фильм, который хотите удалить:",
		"",
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows)+1)
	for i, movie := range rows {
		num := offset + i + 1
		genres := movie.Genres
		if genres == "" {
			genres = "—"
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", num, movie.Title, genres))
		kbRows = append(kbRows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%d", num),
				fmt.Sprintf("delpick|%d|%d", movie.ID, page),
			),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", fmt.Sprintf("delpage|%d", page-1)))
	}
	if page < maxPage {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Вперёд ➡️", fmt.Sprintf("delpage|%d", page+1)))
	}
	if len(nav) > 0 {
		kbRows = append(kbRows, nav)
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	text := strings.Join(lines, "\n")

	if messageID == 0 {
		b.sendMessageKB(chatID, text, kb)
	} else {
		b.editText(chatID, messageID, text, &kb)
	}
}

func (b *Bot) cbDeletePage(ctx context.Context, callback *tgbotapi.CallbackQuery, action deletePage) {
	if !b.isVerified(callback.From.ID) {
		b.alertCallback(callback.ID, "Нет прав.")
		return
	}

	b.sendDeletePage(ctx, callback.Message.Chat.ID, callback.Message.MessageID, action.Page)
	b.answerCallback(callback.ID, "")
}

func (b *Bot) cbDeletePick(ctx context.Context, callback *tgbotapi.CallbackQuery, action deletePick) {
	chatID := callback.Message.Chat.ID

	if !b.isVerified(callback.From.ID) {
		b.alertCallback(callback.ID, "Нет прав.")
		return
	}

	movie, genres, err := b.catalog.MovieDetail(ctx, action.MovieID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		b.alertCallback(callback.ID, "Фильм не найден. Возможно, он уже удалён.")
		b.sendDeletePage(ctx, chatID, callback.Message.MessageID, action.Page)
		return
	}
	if err != nil {
		b.log.Error("Ошибка загрузки фильма", chatIDKey, chatID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}

	block := b.formatAdminMovieBlock(movie.ID, movie.Title, strings.Join(genres, ","), movie.Director, movie.FileID)
	text := "⚠️ <b>Удалить этот фильм?</b>\n\n" + block

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, удалить", fmt.Sprintf("delyes|%d|%d", movie.ID, action.Page)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", fmt.Sprintf("delno|%d", action.Page)),
		),
	)

	b.editText(chatID, callback.Message.MessageID, text, &kb)
	b.answerCallback(callback.ID, "")
}

func (b *Bot) cbDeleteConfirm(ctx context.Context, callback *tgbotapi.CallbackQuery, action deleteConfirm) {
	chatID := callback.Message.Chat.ID

	if !b.isVerified(callback.From.ID) {
		b.alertCallback(callback.ID, "Нет прав.")
		return
	}

	deleted, err := b.catalog.DeleteMovie(ctx, action.MovieID)
	if err != nil {
		prometheus.StoreFailures.WithLabelValues("DeleteMovie").Inc()
		b.log.Error("Ошибка удаления фильма", chatIDKey, chatID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}

	if deleted {
		b.answerCallback(callback.ID, "Фильм удалён.")
	} else {
		b.answerCallback(callback.ID, "Фильм уже был удалён.")
	}
	b.sendDeletePage(ctx, chatID, callback.Message.MessageID, action.Page)
}

func (b *Bot) cbDeleteDecline(ctx context.Context, callback *tgbotapi.CallbackQuery, action deleteDecline) {
	if !b.isVerified(callback.From.ID) {
		b.alertCallback(callback.ID, "Нет прав.")
		return
	}

	b.sendDeletePage(ctx, callback.Message.Chat.ID, callback.Message.MessageID, action.Page)
	b.answerCallback(callback.ID, "Отменено.")
}

// ---- genre admin ----

func (b *Bot) handleGenresAdmin(ctx context.Context, chatID, userID int64) {
	if !b.isVerified(userID) {
		b.SendMessage(chatID, "Эта команда доступна только администратору.")
		return
	}
	b.sendGenresAdmin(ctx, chatID, 0)
}

func (b *Bot) sendGenresAdmin(ctx context.Context, chatID int64, messageID int) {
	genres, err := b.catalog.ListGenres(ctx)
	if err != nil {
		b.log.Error("Ошибка загрузки жанров", chatIDKey, chatID, errorKey, err)
		b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
		return
	}
	if len(genres) == 0 {
		text := "Жанров пока нет. Добавьте первый через /add_genre."
		if messageID == 0 {
			b.SendMessage(chatID, text)
		} else {
			b.editText(chatID, messageID, text, nil)
		}
		return
	}

	lines := []string{
		"🎭 <b>Жанры в базе</b>",
		"",
		"Нажмите на жанр, чтобы удалить его.",
		"Жанр, к которому привязаны фильмы, удалить нельзя.",
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(genres))
	for _, g := range genres {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				"❌ "+capitalize(g.Name),
				fmt.Sprintf("genre_del|%d", g.ID),
			),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)

	text := strings.Join(lines, "\n")
	if messageID == 0 {
		b.sendMessageKB(chatID, text, kb)
	} else {
		b.editText(chatID, messageID, text, &kb)
	}
}

func (b *Bot) cbGenreDelete(ctx context.Context, callback *tgbotapi.CallbackQuery, action genreDelete) {
	chatID := callback.Message.Chat.ID

	if !b.isVerified(callback.From.ID) {
		b.alertCallback(callback.ID, "Нет прав.")
		return
	}

	name, err := b.catalog.GetGenreName(ctx, action.GenreID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		b.alertCallback(callback.ID, "Жанр не найден. Возможно, он уже удалён.")
		b.sendGenresAdmin(ctx, chatID, callback.Message.MessageID)
		return
	}
	if err != nil {
		b.log.Error("Ошибка загрузки жанра", chatIDKey, chatID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}

	deleted, err := b.catalog.DeleteGenre(ctx, action.GenreID)
	if err != nil {
		prometheus.StoreFailures.WithLabelValues("DeleteGenre").Inc()
		b.log.Error("Ошибка удаления жанра", chatIDKey, chatID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}
	// the genre existed a moment ago, so a false result means it is
	// still referenced by movies
	if !deleted {
		b.alertCallback(callback.ID, fmt.Sprintf("Нельзя удалить жанр «%s»: к нему привязаны фильмы.", name))
		return
	}

	b.answerCallback(callback.ID, fmt.Sprintf("Жанр «%s» удалён.", name))
	b.sendGenresAdmin(ctx, chatID, callback.Message.MessageID)
}

func (b *Bot) handleAddGenreEntry(ctx context.Context, chatID, userID int64) {
	if !b.isVerified(userID) {
		b.SendMessage(chatID, "Эта команда доступна только администратору.")
		return
	}

	b.openDialog(userID, domain.FlowGenreAdd, &domain.DialogState{
		Stage: domain.StageWaitingGenreName,
	})

	b.SendMessage(chatID, "Введите название нового жанра.\n\nДля отмены используйте /cancel.")
}

func (b *Bot) consumeGenreName(ctx context.Context, chatID, userID int64, text string) {
	name := strings.ToLower(strings.TrimSpace(text))
	if name == "" {
		b.SendMessage(chatID, "Название жанра не может быть пустым. Попробуйте ещё раз или используйте /cancel.")
		return
	}

	if _, err := b.catalog.GetOrCreateGenre(ctx, name); err != nil {
		b.reportStoreFailure(ctx, chatID, userID, domain.FlowGenreAdd, "GetOrCreateGenre", err)
		return
	}

	b.closeDialog(userID, domain.FlowGenreAdd)
	b.SendMessage(chatID, fmt.Sprintf("✅ Жанр «%s» добавлен.", name))
}

// handleLink answers a title search with deep links, for sharing movies
// outside the bot.
func (b *Bot) handleLink(ctx context.Context, chatID, userID int64, query string) {
	if !b.isVerified(userID) {
		b.SendMessage(chatID, "Эта команда доступна только администратору.")
		return
	}

	if query == "" {
		b.SendMessage(chatID, "Использование: /link <часть названия>")
		return
	}

	movies, err := b.catalog.SearchMovies(ctx, query)
	if err != nil {
		b.log.Error("Ошибка поиска фильмов", chatIDKey, chatID, errorKey, err)
		b.SendMessage(chatID, "Произошла ошибка. Попробуйте ещё раз позже.")
		return
	}
	if len(movies) == 0 {
		b.SendMessage(chatID, "Ничего не найдено.")
		return
	}

	const linkLimit = 15
	if len(movies) > linkLimit {
		movies = movies[:linkLimit]
	}

	lines := make([]string, 0, len(movies))
	for _, movie := range movies {
		lines = append(lines, fmt.Sprintf("%s — %s", movie.Title, b.movieLink(movie.ID)))
	}
	b.SendMessage(chatID, strings.Join(lines, "\n"))
}
