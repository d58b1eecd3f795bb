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

func addCommandMessage(userID int64) *tgbotapi.Message {
	msg := textMessage(userID, "/add")
	msg.ReplyToMessage = &tgbotapi.Message{
		MessageID: 2,
		Video:     &tgbotapi.Video{FileID: "file-abc"},
	}
	return msg
}

func TestAddFlowHappyPath(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	drama := catalog.addGenre("драма")
	comedy := catalog.addGenre("комедия")
	bot := newTestBot(api, catalog)

	bot.handleMessage(ctx, addCommandMessage(testAdminID))
	require.Contains(t, api.lastText(), "название")

	bot.handleMessage(ctx, textMessage(testAdminID, "Солярис"))
	bot.handleMessage(ctx, textMessage(testAdminID, "Тарковский"))

	state, ok := bot.dialogs.Get(testAdminID, domain.FlowAdd)
	require.True(t, ok)
	assert.Equal(t, domain.StageChoosingGenres, state.Stage)
	assert.Equal(t, "Солярис", state.Title)
	assert.Equal(t, "file-abc", state.FileID)

	bot.handleUpdate(ctx, tgbotapi.Update{
		CallbackQuery: callbackFrom(testAdminID, fmt.Sprintf("addg|%d", drama)),
	})
	bot.handleUpdate(ctx, tgbotapi.Update{
		CallbackQuery: callbackFrom(testAdminID, "addg_done"),
	})

	_, ok = bot.dialogs.Get(testAdminID, domain.FlowAdd)
	assert.False(t, ok, "диалог должен закрыться после сохранения")

	require.Len(t, catalog.movies, 1)
	movie := catalog.movies[1]
	assert.Equal(t, "Солярис", movie.Title)
	assert.Equal(t, "Тарковский", movie.Director)
	assert.Equal(t, "file-abc", movie.FileID)
	assert.Equal(t, []string{"драма"}, catalog.genreNames(1))

	// comedy stayed unselected
	assert.NotContains(t, catalog.movieGenres[1], comedy)
}

func TestAddFlowRequiresReplyWithMedia(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleMessage(ctx, textMessage(testAdminID, "/add"))

	_, ok := bot.dialogs.Get(testAdminID, domain.FlowAdd)
	assert.False(t, ok)
	assert.Contains(t, api.lastText(), "Ответьте командой /add")
}

func TestAddFlowUnverifiedRejected(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleMessage(ctx, addCommandMessage(testViewer))

	_, ok := bot.dialogs.Get(testViewer, domain.FlowAdd)
	assert.False(t, ok)
	assert.Contains(t, api.lastText(), "/admin")
}

func TestAddFlowEmptySelectionRejected(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	catalog.addGenre("драма")
	bot := newTestBot(api, catalog)

	bot.handleMessage(ctx, addCommandMessage(testAdminID))
	bot.handleMessage(ctx, textMessage(testAdminID, "Сталкер"))
	bot.handleMessage(ctx, textMessage(testAdminID, "Тарковский"))

	bot.handleUpdate(ctx, tgbotapi.Update{
		CallbackQuery: callbackFrom(testAdminID, "addg_done"),
	})

	assert.Contains(t, api.lastAlert(), "хотя бы один жанр")
	assert.Empty(t, catalog.movies, "фильм не должен сохраниться без жанров")

	state, ok := bot.dialogs.Get(testAdminID, domain.FlowAdd)
	require.True(t, ok, "диалог должен остаться открытым")
	assert.Equal(t, domain.StageChoosingGenres, state.Stage)
}

func TestAddFlowToggleIsIdempotentPair(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	drama := catalog.addGenre("драма")
	bot := newTestBot(api, catalog)

	bot.handleMessage(ctx, addCommandMessage(testAdminID))
	bot.handleMessage(ctx, textMessage(testAdminID, "Зеркало"))
	bot.handleMessage(ctx, textMessage(testAdminID, "Тарковский"))

	toggle := fmt.Sprintf("addg|%d", drama)
	bot.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: callbackFrom(testAdminID, toggle)})
	bot.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: callbackFrom(testAdminID, toggle)})

	state, ok := bot.dialogs.Get(testAdminID, domain.FlowAdd)
	require.True(t, ok)
	assert.Empty(t, state.Selected, "повторное нажатие снимает выбор")
}

func TestAddFlowNoGenresInCatalog(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	bot := newTestBot(api, newFakeCatalog())

	bot.handleMessage(ctx, addCommandMessage(testAdminID))
	bot.handleMessage(ctx, textMessage(testAdminID, "Сталкер"))
	bot.handleMessage(ctx, textMessage(testAdminID, "Тарковский"))

	_, ok := bot.dialogs.Get(testAdminID, domain.FlowAdd)
	assert.False(t, ok, "диалог закрывается, когда жанров нет")
	assert.Contains(t, api.lastText(), "/add_genre")
}

func TestAddFlowSwallowsCommandsWhileTyping(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	catalog := newFakeCatalog()
	catalog.addGenre("драма")
	bot := newTestBot(api, catalog)

	bot.handleMessage(ctx, addCommandMessage(testAdminID))
	bot.handleMessage(ctx, textMessage(testAdminID, "/random"))

	state, ok := bot.dialogs.Get(testAdminID, domain.FlowAdd)
	require.True(t, ok)
	assert.Equal(t, "/random", state.Title, "текст команды принимается как название")
	assert.Equal(t, domain.StageWaitingDirector, state.Stage)
}
