package usecase

import (
	"context"
	"fmt"

	"github.com/sonofthenation/arcanum/internal/domain"
)

// PageSize is how many movies every paginated listing shows per page.
const PageSize = 10

// Catalog orchestrates catalog-store operations for the delivery layer.
type Catalog struct {
	domain.CatalogRepository
}

func NewCatalog(repo domain.CatalogRepository) *Catalog {
	return &Catalog{CatalogRepository: repo}
}

// MovieDetail loads a movie together with its genre names.
func (c *Catalog) MovieDetail(ctx context.Context, movieID int64) (domain.Movie, []string, error) {
	const op = "usecase.MovieDetail"

	movie, err := c.GetMovieByID(ctx, movieID)
	if err != nil {
		return domain.Movie{}, nil, err
	}
	genres, err := c.GetMovieGenres(ctx, movieID)
	if err != nil {
		return domain.Movie{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	return movie, genres, nil
}

// ResolveGenreIDs maps genre names to current ids, silently dropping
// names that no longer exist. Used to pre-populate the edit selection.
func (c *Catalog) ResolveGenreIDs(ctx context.Context, names []string) ([]int64, error) {
	const op = "usecase.ResolveGenreIDs"

	genres, err := c.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byName := make(map[string]int64, len(genres))
	for _, g := range genres {
		byName[g.Name] = g.ID
	}

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		if id, ok := byName[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// EnsureGenreIDs resolves names to ids, recreating genres that were
// deleted in the meantime. Used by the keep-original-genres shortcut.
func (c *Catalog) EnsureGenreIDs(ctx context.Context, names []string) ([]int64, error) {
	const op = "usecase.EnsureGenreIDs"

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := c.GetOrCreateGenre(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GenreNamesByID builds an id -> name index of the current catalog.
func (c *Catalog) GenreNamesByID(ctx context.Context) (map[int64]string, error) {
	const op = "usecase.GenreNamesByID"

	genres, err := c.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byID := make(map[int64]string, len(genres))
	for _, g := range genres {
		byID[g.ID] = g.Name
	}
	return byID, nil
}

// MaxPage is the highest valid zero-based page for a catalog of total
// movies.
func MaxPage(total int) int {
	if total <= 0 {
		return 0
	}
	return (total - 1) / PageSize
}

// ClampPage bounds a requested page to [0, MaxPage]. Flow entry points
// clamp; explicit navigation rejects out-of-range pages instead.
func ClampPage(page, total int) int {
	if page < 0 {
		return 0
	}
	if max := MaxPage(total); page > max {
		return max
	}
	return page
}
