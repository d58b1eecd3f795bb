package cachedRepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sonofthenation/arcanum/internal/domain"
	"github.com/sonofthenation/arcanum/pkg/prometheus"
)

type CacheRepository interface {
	GetMovieByID(ctx context.Context, movieID int64) (domain.Movie, error)
	SetMovie(ctx context.Context, movie domain.Movie) error
	DropMovie(ctx context.Context, movieID int64) error
}

// CachedRepo decorates the catalog store with a movie-detail cache.
// Writes that change or remove a movie invalidate its cache entry.
type CachedRepo struct {
	domain.CatalogRepository
	cache CacheRepository
	log   *slog.Logger
}

func NewCachedRepo(repo domain.CatalogRepository, cache CacheRepository, log *slog.Logger) *CachedRepo {
	return &CachedRepo{
		CatalogRepository: repo,
		cache:             cache,
		log:               log,
	}
}

func (r *CachedRepo) GetMovieByID(ctx context.Context, movieID int64) (domain.Movie, error) {
	const op = "cachedRepo.GetMovieByID"

	movie, err := r.cache.GetMovieByID(ctx, movieID)
	if err == nil {
		prometheus.CacheOperations.WithLabelValues("hit").Inc()
		return movie, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		prometheus.CacheOperations.WithLabelValues("error").Inc()
		r.log.WarnContext(ctx, "cache lookup failed",
			"movieID", movieID,
			"error", err,
		)
	}
	prometheus.CacheOperations.WithLabelValues("miss").Inc()

	movie, err = r.CatalogRepository.GetMovieByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Movie{}, err
		}
		return domain.Movie{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.cache.SetMovie(ctx, movie); err != nil {
		r.log.ErrorContext(ctx, "failed to cache movie",
			"movieID", movieID,
			"error", err,
		)
	}
	return movie, nil
}

func (r *CachedRepo) UpdateMovieFull(ctx context.Context, movieID int64, title, director string, genreIDs []int64) (bool, error) {
	ok, err := r.CatalogRepository.UpdateMovieFull(ctx, movieID, title, director, genreIDs)
	if err == nil && ok {
		r.invalidate(ctx, movieID)
	}
	return ok, err
}

func (r *CachedRepo) DeleteMovie(ctx context.Context, movieID int64) (bool, error) {
	ok, err := r.CatalogRepository.DeleteMovie(ctx, movieID)
	if err == nil && ok {
		r.invalidate(ctx, movieID)
	}
	return ok, err
}

func (r *CachedRepo) invalidate(ctx context.Context, movieID int64) {
	if err := r.cache.DropMovie(ctx, movieID); err != nil {
		r.log.WarnContext(ctx, "failed to invalidate cached movie",
			"movieID", movieID,
			"error", err,
		)
	}
}
