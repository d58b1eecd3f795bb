package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonofthenation/arcanum/internal/domain"
)

func TestCancelClosesAllOwnDialogsOnly(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	catalog.addGenre("драма")
	bot := newTestBot(api, catalog)

	bot.handleMessage(ctx, addCommandMessage(testAdminID))
	bot.handleSearchEntry(ctx, testAdminID, testAdminID)
	bot.handleSearchEntry(ctx, testViewer, testViewer)

	bot.handleMessage(ctx, textMessage(testAdminID, "/cancel"))

	_, ok := bot.dialogs.Get(testAdminID, domain.FlowAdd)
	assert.False(t, ok)
	_, ok = bot.dialogs.Get(testAdminID, domain.FlowSearch)
	assert.False(t, ok)
	assert.Contains(t, api.lastText(), "отменена")

	_, ok = bot.dialogs.Get(testViewer, domain.FlowSearch)
	assert.True(t, ok, "чужой диалог не задет")
}

func TestCancelWithNothingOpen(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleMessage(ctx, textMessage(testViewer, "/cancel"))

	assert.Contains(t, api.lastText(), "нечего отменять")
}

func TestCancelOverridesAddFlowTextCapture(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	catalog.addGenre("драма")
	bot := newTestBot(api, catalog)

	bot.handleMessage(ctx, addCommandMessage(testAdminID))
	bot.handleMessage(ctx, textMessage(testAdminID, "/cancel"))

	_, ok := bot.dialogs.Get(testAdminID, domain.FlowAdd)
	assert.False(t, ok, "/cancel пробивается сквозь захват текста")
}

func TestUnknownCommand(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleMessage(ctx, textMessage(testViewer, "/frobnicate"))

	assert.Contains(t, api.lastText(), "Неизвестная команда")
}

func TestMalformedCallbackAlerts(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleUpdate(ctx, tgbotapi.Update{
		CallbackQuery: callbackFrom(testViewer, "addg|oops"),
	})

	assert.Contains(t, api.lastAlert(), "Ошибка данных")
}

func TestStaleGenreToggleAcknowledgedSilently(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleUpdate(ctx, tgbotapi.Update{
		CallbackQuery: callbackFrom(testAdminID, "addg|1"),
	})

	require.Len(t, api.requests, 1)
	cb, ok := api.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.False(t, cb.ShowAlert)
	assert.Empty(t, api.sent, "никаких сообщений по устаревшей кнопке")
}
