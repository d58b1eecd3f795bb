package telegram

import (
	"context"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonofthenation/arcanum/internal/domain"
)

func TestStartShowsKeyboard(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleStart(ctx, testViewer, testViewer, "")

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	_, ok = msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	assert.True(t, ok, "постоянная клавиатура прикреплена")
}

func TestDeepLinkDeliversAndRecords(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	drama := catalog.addGenre("драма")
	movieID := catalog.addMovie("Солярис", "Тарковский", "file-1", []int64{drama})
	bot := newTestBot(api, catalog)

	bot.handleStart(ctx, testViewer, testViewer, fmt.Sprintf("m%d", movieID))

	require.Len(t, catalog.watches, 1)
	assert.Equal(t, testViewer, catalog.watches[0].userID)
	assert.Equal(t, movieID, catalog.watches[0].movieID)

	require.Len(t, api.sent, 1)
	video, ok := api.sent[0].(tgbotapi.VideoConfig)
	require.True(t, ok)
	assert.Contains(t, video.Caption, "Солярис")
	assert.Contains(t, video.Caption, "Драма")
}

func TestDeepLinkNotFoundLeavesNoHistory(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	bot := newTestBot(api, catalog)

	bot.handleStart(ctx, testViewer, testViewer, "m999")

	assert.Contains(t, api.lastText(), "не найден")
	assert.Empty(t, catalog.watches, "история не пополняется")
}

func TestDeepLinkMalformed(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	bot := newTestBot(api, catalog)

	bot.handleStart(ctx, testViewer, testViewer, "mxyz")

	assert.Contains(t, api.lastText(), "Неверная ссылка")
	assert.Empty(t, catalog.watches)
}

func TestRandomEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleRandom(ctx, testViewer, testViewer)

	assert.Contains(t, api.lastText(), "нет фильмов")
}

func TestGenreBrowse(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	drama := catalog.addGenre("драма")
	movieID := catalog.addMovie("Солярис", "Тарковский", "file-1", []int64{drama})
	bot := newTestBot(api, catalog)

	bot.handleByGenre(ctx, testViewer)
	kb := lastKeyboard(api)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, fmt.Sprintf("genre|%d|0", drama), *kb.InlineKeyboard[0][0].CallbackData)

	bot.handleUpdate(ctx, tgbotapi.Update{
		CallbackQuery: callbackFrom(testViewer, fmt.Sprintf("genre|%d|0", drama)),
	})
	kb = lastKeyboard(api)
	require.NotNil(t, kb)
	// one movie button plus the back-to-genres row
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, fmt.Sprintf("movie|%d", movieID), *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "genres_list", *kb.InlineKeyboard[1][0].CallbackData)

	bot.handleUpdate(ctx, tgbotapi.Update{
		CallbackQuery: callbackFrom(testViewer, fmt.Sprintf("movie|%d", movieID)),
	})
	require.Len(t, catalog.watches, 1)
	assert.Equal(t, movieID, catalog.watches[0].movieID)
}

func TestGenreBrowseEmptyGenre(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	western := catalog.addGenre("вестерн")
	bot := newTestBot(api, catalog)

	bot.handleUpdate(ctx, tgbotapi.Update{
		CallbackQuery: callbackFrom(testViewer, fmt.Sprintf("genre|%d|0", western)),
	})

	assert.Contains(t, api.lastAlert(), "нет фильмов")
}

func TestSearchFlow(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	drama := catalog.addGenre("драма")
	catalog.addMovie("Солярис", "Тарковский", "f1", []int64{drama})
	catalog.addMovie("Сталкер", "Тарковский", "f2", []int64{drama})
	bot := newTestBot(api, catalog)

	bot.handleMessage(ctx, textMessage(testViewer, "🔎Поиск"))
	_, ok := bot.dialogs.Get(testViewer, domain.FlowSearch)
	require.True(t, ok)

	bot.handleMessage(ctx, textMessage(testViewer, "ст"))

	_, ok = bot.dialogs.Get(testViewer, domain.FlowSearch)
	assert.False(t, ok, "поиск одноходовый")
	assert.Contains(t, api.lastText(), "Найдено: 1")

	kb := lastKeyboard(api)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "Сталкер", kb.InlineKeyboard[0][0].Text)
}

func TestSearchNoResults(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleSearchEntry(ctx, testViewer, testViewer)
	bot.handleMessage(ctx, textMessage(testViewer, "нет такого"))

	_, ok := bot.dialogs.Get(testViewer, domain.FlowSearch)
	assert.False(t, ok)
	assert.Contains(t, api.lastText(), "Ничего не найдено")
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	drama := catalog.addGenre("драма")
	first := catalog.addMovie("Солярис", "Тарковский", "f1", []int64{drama})
	second := catalog.addMovie("Сталкер", "Тарковский", "f2", []int64{drama})
	require.NoError(t, catalog.RecordWatch(ctx, testViewer, first))
	require.NoError(t, catalog.RecordWatch(ctx, testViewer, second))
	require.NoError(t, catalog.RecordWatch(ctx, testAdminID, first))
	bot := newTestBot(api, catalog)

	bot.handleHistory(ctx, testViewer, testViewer)

	text := api.lastText()
	assert.Contains(t, text, "Сталкер")
	assert.Contains(t, text, "Солярис")

	kb := lastKeyboard(api)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2, "чужие просмотры не попадают в историю")
	// newest first
	assert.Equal(t, fmt.Sprintf("movie|%d", second), *kb.InlineKeyboard[0][0].CallbackData)
}

func TestHistoryEmpty(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleHistory(ctx, testViewer, testViewer)

	assert.Contains(t, api.lastText(), "История пока пуста")
}

func TestCopyLink(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleUpdate(ctx, tgbotapi.Update{
		CallbackQuery: callbackFrom(testViewer, "copylink|7"),
	})

	assert.Equal(t, "https://t.me/arcanum_movies_bot?start=m7", api.lastText())
}
