package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sonofthenation/arcanum/internal/domain"
	"github.com/sonofthenation/arcanum/internal/usecase"
)

// Edit-movie flow: paginated picker, then waiting_title ->
// waiting_director -> choosing_genres. A single dash keeps the
// original title or director; a trailer action keeps the original
// genre set.

// keepMarker is the literal input meaning "leave this field unchanged".
const keepMarker = "-"

func (b *Bot) handleEditEntry(ctx context.Context, chatID, userID int64) {
	if !b.isVerified(userID) {
		b.SendMessage(chatID, "Эта команда доступна только администратору.")
		return
	}

	total, err := b.catalog.CountMovies(ctx)
	if err != nil {
		b.reportStoreFailure(ctx, chatID, userID, domain.FlowEdit, "CountMovies", err)
		return
	}
	if total == 0 {
		b.SendMessage(chatID, "В базе пока нет фильмов.")
		return
	}

	b.sendEditPage(ctx, chatID, 0, 0)
}

// sendEditPage renders one page of the edit picker. messageID zero
// sends a new message, otherwise the existing one is edited in place.
// The requested page is clamped here; explicit navigation callbacks
// can only carry pages that had a button.
func (b *Bot) sendEditPage(ctx context.Context, chatID int64, messageID int, page int) {
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
		"✏️ <b>Редактирование фильма</b>",
		fmt.Sprintf("Страница <b>%d</b> из <b>%d</b>", page+1, maxPage+1),
		fmt.Sprintf("Всего фильмов: <b>%d</b>", total),
		"",
		"Выберите фильм, который хотите изменить:",
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
				fmt.Sprintf("editpick|%d|%d", movie.ID, page),
			),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", fmt.Sprintf("editpage|%d", page-1)))
	}
	if page < maxPage {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Вперёд ➡️", fmt.Sprintf("editpage|%d", page+1)))
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

func (b *Bot) cbEditPage(ctx context.Context, callback *tgbotapi.CallbackQuery, action editPage) {
	if !b.isVerified(callback.From.ID) {
		b.alertCallback(callback.ID, "Нет прав.")
		return
	}

	b.sendEditPage(ctx, callback.Message.Chat.ID, callback.Message.MessageID, action.Page)
	b.answerCallback(callback.ID, "")
}

// cbEditPick snapshots the picked movie into a fresh edit dialog and
// asks for the new title. Picking a movie that vanished in the
// meantime alerts without touching any state.
func (b *Bot) cbEditPick(ctx context.Context, callback *tgbotapi.CallbackQuery, action editPick) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	if !b.isVerified(userID) {
		b.alertCallback(callback.ID, "Нет прав.")
		return
	}

	movie, genres, err := b.catalog.MovieDetail(ctx, action.MovieID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		b.alertCallback(callback.ID, "Фильм не найден.")
		return
	}
	if err != nil {
		b.log.Error("Ошибка загрузки фильма", chatIDKey, chatID, errorKey, err)
		b.alertCallback(callback.ID, "Произошла ошибка.")
		return
	}

	b.openDialog(userID, domain.FlowEdit, &domain.DialogState{
		Stage:        domain.StageWaitingTitle,
		MovieID:      movie.ID,
		OrigTitle:    movie.Title,
		OrigDirector: movie.Director,
		OrigGenres:   genres,
	})

	genresText := strings.Join(genres, ", ")
	if genresText == "" {
		genresText = "unknown"
	}

	lines := []string{
		fmt.Sprintf("✏️ <b>Редактирование фильма id=%d</b>", movie.ID),
		fmt.Sprintf("Текущее название: <b>%s</b>", movie.Title),
		"Текущие жанры: " + genresText,
	}
	if movie.Director != "" {
		lines = append(lines, "Текущий режиссёр: "+movie.Director)
	}
	lines = append(lines,
		"",
		"Отправьте <b>новое название</b> фильма,",
		"или напишите <code>-</code>, чтобы оставить без изменений.",
		"",
		"Для отмены в любой момент напишите /cancel.",
	)

	b.editText(chatID, callback.Message.MessageID, strings.Join(lines, "\n"), nil)
	b.answerCallback(callback.ID, "")
}

func (b *Bot) consumeEditText(ctx context.Context, chatID, userID int64, state *domain.DialogState, text string) {
	switch state.Stage {
	case domain.StageWaitingTitle:
		b.dialogs.Advance(userID, domain.FlowEdit, func(s *domain.DialogState) {
			if text == keepMarker {
				s.Title = s.OrigTitle
			} else {
				s.Title = text
			}
			s.Stage = domain.StageWaitingDirector
		})
		b.SendMessage(chatID, "Теперь отправьте нового режиссёра,\nили напишите «-», чтобы оставить без изменений.\n\nДля отмены в любой момент используйте /cancel.")

	case domain.StageWaitingDirector:
		// pre-populate the selection from the original genre names;
		// names that vanished since the movie was tagged are dropped
		ids, err := b.catalog.ResolveGenreIDs(ctx, state.OrigGenres)
		if err != nil {
			b.reportStoreFailure(ctx, chatID, userID, domain.FlowEdit, "ResolveGenreIDs", err)
			return
		}

		selected := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			selected[id] = struct{}{}
		}

		b.dialogs.Advance(userID, domain.FlowEdit, func(s *domain.DialogState) {
			if text == keepMarker {
				s.Director = s.OrigDirector
			} else {
				s.Director = text
			}
			s.Stage = domain.StageChoosingGenres
			s.Selected = selected
		})

		b.sendEditGenresMessage(ctx, chatID, userID)

	case domain.StageChoosingGenres:
		b.SendMessage(chatID, "Сейчас идёт выбор жанров.\nПожалуйста, используйте кнопки под сообщением.\n\nЕсли хотите отменить — /cancel.")
	}
}

func (b *Bot) sendEditGenresMessage(ctx context.Context, chatID, userID int64) {
	state, ok := b.dialogs.Get(userID, domain.FlowEdit)
	if !ok {
		return
	}

	genres, err := b.catalog.ListGenres(ctx)
	if err != nil {
		b.reportStoreFailure(ctx, chatID, userID, domain.FlowEdit, "ListGenres", err)
		return
	}

	origText := strings.Join(state.OrigGenres, ", ")
	if origText == "" {
		origText = "unknown"
	}

	var selectedNames []string
	for _, g := range genres {
		if _, ok := state.Selected[g.ID]; ok {
			selectedNames = append(selectedNames, g.Name)
		}
	}
	selectedText := strings.Join(selectedNames, ", ")
	if selectedText == "" {
		selectedText = "пока ничего не выбрано"
	}

	lines := []string{
		"✏️ Редактирование фильма: " + state.Title,
		"",
		"Текущие жанры: " + origText,
		"Выбранные жанры: " + selectedText,
		"",
		"Нажимайте на жанры, чтобы включать/выключать их.",
		"Когда закончите — нажмите «Готово».",
		"Или «Оставить жанры без изменений».",
		"",
		"Для отмены также можно использовать /cancel.",
	}

	b.sendMessageKB(chatID, strings.Join(lines, "\n"), buildGenreSelectKB(genres, state.Selected, genreSelectEdit))
}

func (b *Bot) cbEditGenreToggle(ctx context.Context, callback *tgbotapi.CallbackQuery, action editGenreToggle) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	state, ok := b.dialogs.Get(userID, domain.FlowEdit)
	if !ok || state.Stage != domain.StageChoosingGenres {
		b.alertCallback(callback.ID, "Сейчас жанры не редактируются.")
		return
	}

	b.dialogs.Advance(userID, domain.FlowEdit, func(s *domain.DialogState) {
		s.ToggleGenre(action.GenreID)
	})

	genres, err := b.catalog.ListGenres(ctx)
	if err != nil {
		b.log.Error("Ошибка загрузки жанров", chatIDKey, chatID, errorKey, err)
		b.answerCallback(callback.ID, "")
		return
	}

	b.editMarkup(chatID, callback.Message.MessageID, buildGenreSelectKB(genres, state.Selected, genreSelectEdit))
	b.answerCallback(callback.ID, "")
}

func (b *Bot) cbEditGenresDone(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID

	state, ok := b.dialogs.Get(userID, domain.FlowEdit)
	if !ok || state.Stage != domain.StageChoosingGenres {
		b.alertCallback(callback.ID, "Сейчас жанры не редактируются.")
		return
	}

	if len(state.Selected) == 0 {
		b.alertCallback(callback.ID, "Выберите хотя бы один жанр или нажмите «Оставить жанры без изменений».")
		return
	}

	b.commitEdit(ctx, callback, state, state.SelectedIDs(), false)
}

// cbEditGenresKeep resolves the original genre names back to ids,
// recreating genres that were deleted in between, and commits with
// that set. The original set is assumed non-empty, so the empty-
// selection guard does not apply here.
func (b *Bot) cbEditGenresKeep(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	state, ok := b.dialogs.Get(userID, domain.FlowEdit)
	if !ok || state.Stage != domain.StageChoosingGenres {
		b.alertCallback(callback.ID, "Сейчас жанры не редактируются.")
		return
	}

	genreIDs, err := b.catalog.EnsureGenreIDs(ctx, state.OrigGenres)
	if err != nil {
		b.reportStoreFailure(ctx, chatID, userID, domain.FlowEdit, "EnsureGenreIDs", err)
		b.answerCallback(callback.ID, "")
		return
	}

	b.commitEdit(ctx, callback, state, genreIDs, true)
}

func (b *Bot) commitEdit(ctx context.Context, callback *tgbotapi.CallbackQuery, state *domain.DialogState, genreIDs []int64, keptGenres bool) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	ok, err := b.catalog.UpdateMovieFull(ctx, state.MovieID, state.Title, state.Director, genreIDs)
	if err != nil {
		b.reportStoreFailure(ctx, chatID, userID, domain.FlowEdit, "UpdateMovieFull", err)
		b.answerCallback(callback.ID, "")
		return
	}
	if !ok {
		b.closeDialog(userID, domain.FlowEdit)
		b.editText(chatID, callback.Message.MessageID, "Ошибка при сохранении изменений. Возможно, фильм был удалён.", nil)
		b.answerCallback(callback.ID, "")
		return
	}

	var genreNames []string
	if keptGenres {
		genreNames = state.OrigGenres
	} else {
		names, err := b.catalog.GenreNamesByID(ctx)
		if err != nil {
			names = map[int64]string{}
		}
		for _, gid := range genreIDs {
			if name, ok := names[gid]; ok {
				genreNames = append(genreNames, name)
			}
		}
	}
	genresText := strings.Join(genreNames, ", ")
	if genresText == "" {
		genresText = "unknown"
	}

	header := "✅ Фильм обновлён."
	if keptGenres {
		header = "✅ Фильм обновлён (жанры оставлены без изменений)."
	}
	lines := []string{
		header,
		"id: " + formatID(state.MovieID),
		"Название: " + state.Title,
		"Жанры: " + genresText,
	}
	if state.Director != "" {
		lines = append(lines, "Режиссёр: "+state.Director)
	}

	b.closeDialog(userID, domain.FlowEdit)

	b.editText(chatID, callback.Message.MessageID, strings.Join(lines, "\n"), nil)
	b.answerCallback(callback.ID, "Сохранено.")
}

func (b *Bot) cbEditGenresCancel(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	if _, ok := b.dialogs.Get(userID, domain.FlowEdit); !ok {
		b.alertCallback(callback.ID, "Сейчас нечего отменять.")
		return
	}

	b.closeDialog(userID, domain.FlowEdit)
	b.editText(chatID, callback.Message.MessageID, "❌ Редактирование отменено.", nil)
	b.answerCallback(callback.ID, "")
}
