package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sonofthenation/arcanum/internal/domain"
	"github.com/sonofthenation/arcanum/internal/repository/dialogStates"
)

const (
	testAdminID int64 = 1
	testViewer  int64 = 42
)

// fakeAPI records every outbound call instead of talking to Telegram.
type fakeAPI struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 100 + len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeAPI) StopReceivingUpdates() {}

// lastText returns the text of the most recent outbound message or
// edit, skipping media sends.
func (f *fakeAPI) lastText() string {
	for i := len(f.sent) - 1; i >= 0; i-- {
		switch m := f.sent[i].(type) {
		case tgbotapi.MessageConfig:
			return m.Text
		case tgbotapi.EditMessageTextConfig:
			return m.Text
		}
	}
	return ""
}

// lastAlert returns the text of the most recent callback answer that
// was shown as an alert.
func (f *fakeAPI) lastAlert() string {
	for i := len(f.requests) - 1; i >= 0; i-- {
		if cb, ok := f.requests[i].(tgbotapi.CallbackConfig); ok && cb.ShowAlert {
			return cb.Text
		}
	}
	return ""
}

func (f *fakeAPI) allTexts() []string {
	var texts []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			texts = append(texts, m.Text)
		case tgbotapi.EditMessageTextConfig:
			texts = append(texts, m.Text)
		}
	}
	return texts
}

type watchRecord struct {
	userID  int64
	movieID int64
	at      time.Time
}

// fakeCatalog is an in-memory CatalogProvider. Mutations follow the
// store contract: an update of a missing movie reports false without
// side effects, deleting a referenced genre is refused.
type fakeCatalog struct {
	movies      map[int64]domain.Movie
	movieGenres map[int64][]int64
	genres      map[int64]string
	watches     []watchRecord

	nextMovieID int64
	nextGenreID int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		movies:      make(map[int64]domain.Movie),
		movieGenres: make(map[int64][]int64),
		genres:      make(map[int64]string),
		nextMovieID: 1,
		nextGenreID: 1,
	}
}

func (f *fakeCatalog) addGenre(name string) int64 {
	name = strings.ToLower(strings.TrimSpace(name))
	for id, existing := range f.genres {
		if existing == name {
			return id
		}
	}
	id := f.nextGenreID
	f.nextGenreID++
	f.genres[id] = name
	return id
}

func (f *fakeCatalog) addMovie(title, director, fileID string, genreIDs []int64) int64 {
	id := f.nextMovieID
	f.nextMovieID++
	f.movies[id] = domain.Movie{ID: id, Title: title, Director: director, FileID: fileID}
	f.movieGenres[id] = append([]int64(nil), genreIDs...)
	return id
}

func (f *fakeCatalog) genreNames(movieID int64) []string {
	var names []string
	for _, gid := range f.movieGenres[movieID] {
		if name, ok := f.genres[gid]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (f *fakeCatalog) sortedMovieIDs() []int64 {
	ids := make([]int64, 0, len(f.movies))
	for id := range f.movies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f *fakeCatalog) summary(id int64) domain.MovieSummary {
	m := f.movies[id]
	return domain.MovieSummary{
		ID:       m.ID,
		Title:    m.Title,
		Genres:   strings.Join(f.genreNames(id), ","),
		Director: m.Director,
		FileID:   m.FileID,
	}
}

func (f *fakeCatalog) CreateMovie(ctx context.Context, title, director, fileID string, genreIDs []int64) (int64, error) {
	return f.addMovie(title, director, fileID, genreIDs), nil
}

func (f *fakeCatalog) UpdateMovieFull(ctx context.Context, movieID int64, title, director string, genreIDs []int64) (bool, error) {
	if _, ok := f.movies[movieID]; !ok {
		return false, nil
	}
	m := f.movies[movieID]
	m.Title = title
	m.Director = director
	f.movies[movieID] = m
	f.movieGenres[movieID] = append([]int64(nil), genreIDs...)
	return true, nil
}

func (f *fakeCatalog) DeleteMovie(ctx context.Context, movieID int64) (bool, error) {
	if _, ok := f.movies[movieID]; !ok {
		return false, nil
	}
	delete(f.movies, movieID)
	delete(f.movieGenres, movieID)
	return true, nil
}

func (f *fakeCatalog) GetMovieByID(ctx context.Context, movieID int64) (domain.Movie, error) {
	m, ok := f.movies[movieID]
	if !ok {
		return domain.Movie{}, domain.ErrRecordNotFound
	}
	return m, nil
}

func (f *fakeCatalog) GetMovieGenres(ctx context.Context, movieID int64) ([]string, error) {
	return f.genreNames(movieID), nil
}

func (f *fakeCatalog) GetOrCreateGenre(ctx context.Context, name string) (int64, error) {
	return f.addGenre(name), nil
}

func (f *fakeCatalog) GetGenreName(ctx context.Context, genreID int64) (string, error) {
	name, ok := f.genres[genreID]
	if !ok {
		return "", domain.ErrRecordNotFound
	}
	return name, nil
}

func (f *fakeCatalog) DeleteGenre(ctx context.Context, genreID int64) (bool, error) {
	if _, ok := f.genres[genreID]; !ok {
		return false, nil
	}
	for _, gids := range f.movieGenres {
		for _, gid := range gids {
			if gid == genreID {
				return false, nil
			}
		}
	}
	delete(f.genres, genreID)
	return true, nil
}

func (f *fakeCatalog) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	ids := make([]int64, 0, len(f.genres))
	for id := range f.genres {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	genres := make([]domain.Genre, 0, len(ids))
	for _, id := range ids {
		genres = append(genres, domain.Genre{ID: id, Name: f.genres[id]})
	}
	return genres, nil
}

func (f *fakeCatalog) CountMovies(ctx context.Context) (int, error) {
	return len(f.movies), nil
}

func (f *fakeCatalog) CountMoviesByGenre(ctx context.Context, genreID int64) (int, error) {
	count := 0
	for _, gids := range f.movieGenres {
		for _, gid := range gids {
			if gid == genreID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (f *fakeCatalog) ListMoviesPage(ctx context.Context, offset, limit int) ([]domain.MovieSummary, error) {
	ids := f.sortedMovieIDs()
	if offset >= len(ids) {
		return nil, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	var page []domain.MovieSummary
	for _, id := range ids[offset:end] {
		page = append(page, f.summary(id))
	}
	return page, nil
}

func (f *fakeCatalog) ListMoviesByGenrePage(ctx context.Context, genreID int64, offset, limit int) ([]domain.MovieSummary, error) {
	var matching []int64
	for _, id := range f.sortedMovieIDs() {
		for _, gid := range f.movieGenres[id] {
			if gid == genreID {
				matching = append(matching, id)
				break
			}
		}
	}
	if offset >= len(matching) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matching) {
		end = len(matching)
	}
	var page []domain.MovieSummary
	for _, id := range matching[offset:end] {
		page = append(page, f.summary(id))
	}
	return page, nil
}

func (f *fakeCatalog) RandomMovie(ctx context.Context) (domain.MovieSummary, error) {
	ids := f.sortedMovieIDs()
	if len(ids) == 0 {
		return domain.MovieSummary{}, domain.ErrRecordNotFound
	}
	return f.summary(ids[0]), nil
}

func (f *fakeCatalog) SearchMovies(ctx context.Context, query string) ([]domain.MovieSummary, error) {
	query = strings.ToLower(query)
	var found []domain.MovieSummary
	for _, id := range f.sortedMovieIDs() {
		if strings.Contains(strings.ToLower(f.movies[id].Title), query) {
			found = append(found, f.summary(id))
		}
	}
	return found, nil
}

func (f *fakeCatalog) RecordWatch(ctx context.Context, userID, movieID int64) error {
	f.watches = append(f.watches, watchRecord{userID: userID, movieID: movieID, at: time.Now()})
	return nil
}

func (f *fakeCatalog) UserHistory(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	for i := len(f.watches) - 1; i >= 0 && len(entries) < limit; i-- {
		w := f.watches[i]
		if w.userID != userID {
			continue
		}
		m, ok := f.movies[w.movieID]
		if !ok {
			continue
		}
		entries = append(entries, domain.HistoryEntry{
			MovieID:   m.ID,
			Title:     m.Title,
			Genres:    strings.Join(f.genreNames(m.ID), ","),
			Director:  m.Director,
			FileID:    m.FileID,
			WatchedAt: w.at,
		})
	}
	return entries, nil
}

func (f *fakeCatalog) MovieDetail(ctx context.Context, movieID int64) (domain.Movie, []string, error) {
	m, err := f.GetMovieByID(ctx, movieID)
	if err != nil {
		return domain.Movie{}, nil, err
	}
	return m, f.genreNames(movieID), nil
}

func (f *fakeCatalog) ResolveGenreIDs(ctx context.Context, names []string) ([]int64, error) {
	var ids []int64
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		for id, existing := range f.genres {
			if existing == name {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

func (f *fakeCatalog) EnsureGenreIDs(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		ids = append(ids, f.addGenre(name))
	}
	return ids, nil
}

func (f *fakeCatalog) GenreNamesByID(ctx context.Context) (map[int64]string, error) {
	out := make(map[int64]string, len(f.genres))
	for id, name := range f.genres {
		out[id] = name
	}
	return out, nil
}

func newTestBot(api *fakeAPI, catalog *fakeCatalog) *Bot {
	return &Bot{
		api:      api,
		catalog:  catalog,
		dialogs:  dialogStates.NewRegistry(),
		verified: map[int64]struct{}{testAdminID: {}},
		username: "arcanum_movies_bot",
		adminID:  testAdminID,
		log:      slog.New(slog.NewTextHandler(nullWriter{}, nil)),
	}
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func textMessage(userID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.TrimPrefix(strings.SplitN(text, " ", 2)[0], "/")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}}
	}
	return msg
}

func callbackFrom(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   fmt.Sprintf("cb-%s", data),
		From: &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{
			MessageID: 55,
			Chat:      &tgbotapi.Chat{ID: userID},
		},
		Data: data,
	}
}
