package domain

import "context"

// CatalogRepository is the persistence contract for movies, genres and
// watch history. Every call is atomic: multi-statement mutations either
// land completely or not at all.
type CatalogRepository interface {
	CreateMovie(ctx context.Context, title, director, fileID string, genreIDs []int64) (int64, error)
	UpdateMovieFull(ctx context.Context, movieID int64, title, director string, genreIDs []int64) (bool, error)
	DeleteMovie(ctx context.Context, movieID int64) (bool, error)
	GetMovieByID(ctx context.Context, movieID int64) (Movie, error)
	GetMovieGenres(ctx context.Context, movieID int64) ([]string, error)

	GetOrCreateGenre(ctx context.Context, name string) (int64, error)
	GetGenreName(ctx context.Context, genreID int64) (string, error)
	DeleteGenre(ctx context.Context, genreID int64) (bool, error)
	ListGenres(ctx context.Context) ([]Genre, error)

	CountMovies(ctx context.Context) (int, error)
	CountMoviesByGenre(ctx context.Context, genreID int64) (int, error)
	ListMoviesPage(ctx context.Context, offset, limit int) ([]MovieSummary, error)
	ListMoviesByGenrePage(ctx context.Context, genreID int64, offset, limit int) ([]MovieSummary, error)
	RandomMovie(ctx context.Context) (MovieSummary, error)
	SearchMovies(ctx context.Context, query string) ([]MovieSummary, error)

	RecordWatch(ctx context.Context, userID, movieID int64) error
	UserHistory(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error)
}
