package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sonofthenation/arcanum/internal/domain"
)

// The genre multi-select widget: one toggle row per genre in catalog
// order plus a mode-specific trailer of control actions. The add and
// edit flows share the rendering and differ only in the trailer and
// the callback verbs.

type genreSelectMode int

const (
	genreSelectAdd genreSelectMode = iota
	genreSelectEdit
)

func buildGenreSelectKB(genres []domain.Genre, selected map[int64]struct{}, mode genreSelectMode) tgbotapi.InlineKeyboardMarkup {
	toggleVerb := "addg"
	if mode == genreSelectEdit {
		toggleVerb = "editg"
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(genres)+3)
	for _, g := range genres {
		mark := "▫️"
		if _, ok := selected[g.ID]; ok {
			mark = "✅"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				mark+" "+capitalize(g.Name),
				fmt.Sprintf("%s|%d", toggleVerb, g.ID),
			),
		))
	}

	switch mode {
	case genreSelectAdd:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Готово", "addg_done"),
		))
	case genreSelectEdit:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Готово", "editg_done"),
		))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Оставить жанры без изменений", "editg_skip"),
		))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "editg_cancel"),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
