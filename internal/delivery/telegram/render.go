package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Genres are stored in one canonical trimmed-lowercase form; all the
// decoration below is a pure rendering concern.

var genreEmojis = map[string]string{
	"драма":               "🎭",
	"боевик":              "💥",
	"комедия":             "😂",
	"ужасы":               "👻",
	"хоррор":              "👻",
	"научная фантастика":  "🪐",
	"фэнтези":             "🐉",
	"аниме":               "🍥",
	"мультфильм":          "🐭",
	"приключения":         "🧭",
	"триллер":             "😱",
	"романтика":           "💖",
	"мелодрама":           "💌",
	"документальный":      "📚",
	"семейный":            "👨‍👩‍👧",
}

const defaultGenreEmoji = "🎬"

var digitStickers = map[rune]string{
	'0': "0️⃣", '1': "1️⃣", '2': "2️⃣", '3': "3️⃣", '4': "4️⃣",
	'5': "5️⃣", '6': "6️⃣", '7': "7️⃣", '8': "8️⃣", '9': "9️⃣",
}

func numToSticker(n int64) string {
	var sb strings.Builder
	for _, r := range fmt.Sprintf("%d", n) {
		sb.WriteString(digitStickers[r])
	}
	return sb.String()
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

// splitGenresCSV turns the store's comma-joined genre string into a
// clean name list.
func splitGenresCSV(csv string) []string {
	var names []string
	for _, part := range strings.Split(csv, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// formatGenresDisplay decorates genre names with emoji and a capital
// letter for user-facing text.
func formatGenresDisplay(genres []string) string {
	if len(genres) == 0 {
		return "—"
	}
	parts := make([]string, 0, len(genres))
	for _, g := range genres {
		base := strings.TrimSpace(g)
		if base == "" {
			continue
		}
		emoji, ok := genreEmojis[strings.ToLower(base)]
		if !ok {
			emoji = defaultGenreEmoji
		}
		parts = append(parts, emoji+" "+capitalize(base))
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, ", ")
}

// buildMovieCaption renders the single caption format every delivery
// path uses.
func buildMovieCaption(title string, genres []string, director string) string {
	lines := []string{
		"🎬 " + title,
		"",
		"🎞 Жанры: " + formatGenresDisplay(genres),
	}
	if director != "" {
		lines = append(lines, "🎬 Режиссёр: "+director)
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) movieLink(movieID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=m%d", b.username, movieID)
}

func (b *Bot) formatAdminMovieBlock(movieID int64, title, genres, director, fileID string) string {
	genresText := genres
	if genresText == "" {
		genresText = "—"
	}
	lines := []string{
		fmt.Sprintf("<b>%s</b>", numToSticker(movieID)),
		fmt.Sprintf("<b>file_id:</b> <code>%s</code>", fileID),
		fmt.Sprintf("<b>Название:</b> %s", title),
		fmt.Sprintf("<b>Жанры:</b> %s", genresText),
	}
	if director != "" {
		lines = append(lines, fmt.Sprintf("<b>Режиссёр:</b> %s", director))
	}
	lines = append(lines, fmt.Sprintf("<b>link:</b> <code>%s</code>", b.movieLink(movieID)))
	return strings.Join(lines, "\n")
}

// buildMovieLinkKB is the copy-link button shown under every delivered
// movie.
func buildMovieLinkKB(movieID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				"🔗 Скопировать ссылку",
				fmt.Sprintf("copylink|%d", movieID),
			),
		),
	)
}
