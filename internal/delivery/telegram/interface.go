package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sonofthenation/arcanum/internal/domain"
)

// TelegramAPI is the slice of the bot API the handlers use. Satisfied
// by *tgbotapi.BotAPI; tests substitute a recorder.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// CatalogProvider is everything the handlers need from the catalog.
// Satisfied by *usecase.Catalog.
type CatalogProvider interface {
	domain.CatalogRepository

	MovieDetail(ctx context.Context, movieID int64) (domain.Movie, []string, error)
	ResolveGenreIDs(ctx context.Context, names []string) ([]int64, error)
	EnsureGenreIDs(ctx context.Context, names []string) ([]int64, error)
	GenreNamesByID(ctx context.Context) (map[int64]string, error)
}
