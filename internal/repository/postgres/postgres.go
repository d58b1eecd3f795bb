package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sonofthenation/arcanum/configs"
	"github.com/sonofthenation/arcanum/internal/domain"
)

// Repo is the relational Catalog Store. Multi-statement mutations run
// inside a single transaction so every contract call is atomic.
type Repo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewRepo(cfg *configs.Config, log *slog.Logger) (*Repo, error) {
	const op = "postgres.NewRepo"

	db, err := sql.Open("pgx", cfg.PG.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: open postgres: %w", op, err)
	}
	db.SetMaxOpenConns(20)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: ping postgres: %w", op, err)
	}

	return &Repo{db: db, log: log}, nil
}

func (r *Repo) Close() error {
	return r.db.Close()
}

// InitSchema creates the catalog tables when they do not exist yet.
func (r *Repo) InitSchema(ctx context.Context) error {
	const op = "postgres.InitSchema"

	statements := []string{
		`CREATE TABLE IF NOT EXISTS genres (
			id BIGSERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS movies (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			director TEXT,
			file_id TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS movie_genres (
			movie_id BIGINT NOT NULL,
			genre_id BIGINT NOT NULL,
			PRIMARY KEY (movie_id, genre_id),
			FOREIGN KEY (movie_id) REFERENCES movies(id),
			FOREIGN KEY (genre_id) REFERENCES genres(id)
		);`,
		`CREATE TABLE IF NOT EXISTS watch_history (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			movie_id BIGINT NOT NULL,
			watched_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func (r *Repo) CreateMovie(ctx context.Context, title, director, fileID string, genreIDs []int64) (int64, error) {
	const op = "postgres.CreateMovie"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var movieID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO movies (title, director, file_id) VALUES ($1, $2, $3) RETURNING id;`,
		title, nullable(director), fileID,
	).Scan(&movieID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, gid := range genreIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO movie_genres (movie_id, genre_id) VALUES ($1, $2)
			 ON CONFLICT (movie_id, genre_id) DO NOTHING;`,
			movieID, gid,
		)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return movieID, nil
}

// UpdateMovieFull atomically replaces title, director and the whole
// genre association set. Returns false when the movie no longer exists.
func (r *Repo) UpdateMovieFull(ctx context.Context, movieID int64, title, director string, genreIDs []int64) (bool, error) {
	const op = "postgres.UpdateMovieFull"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM movies WHERE id = $1 FOR UPDATE;`, movieID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE movies SET title = $1, director = $2 WHERE id = $3;`,
		title, nullable(director), movieID,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = $1;`, movieID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	for _, gid := range genreIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO movie_genres (movie_id, genre_id) VALUES ($1, $2);`,
			movieID, gid,
		)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// DeleteMovie removes a movie together with its history entries and
// genre associations.
func (r *Repo) DeleteMovie(ctx context.Context, movieID int64) (bool, error) {
	const op = "postgres.DeleteMovie"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM watch_history WHERE movie_id = $1;`, movieID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = $1;`, movieID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = $1;`, movieID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}

func (r *Repo) GetMovieByID(ctx context.Context, movieID int64) (domain.Movie, error) {
	const op = "postgres.GetMovieByID"

	var (
		movie    domain.Movie
		director sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, director, file_id FROM movies WHERE id = $1;`, movieID,
	).Scan(&movie.ID, &movie.Title, &director, &movie.FileID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Movie{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Movie{}, fmt.Errorf("%s: %w", op, err)
	}
	movie.Director = director.String
	return movie, nil
}

func (r *Repo) GetMovieGenres(ctx context.Context, movieID int64) ([]string, error) {
	const op = "postgres.GetMovieGenres"

	rows, err := r.db.QueryContext(ctx,
		`SELECT g.name
		 FROM movie_genres mg
		 JOIN genres g ON mg.genre_id = g.id
		 WHERE mg.movie_id = $1
		 ORDER BY g.name;`, movieID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetOrCreateGenre normalizes the name to trimmed lowercase, which is
// the single canonical form genres are stored in.
func (r *Repo) GetOrCreateGenre(ctx context.Context, name string) (int64, error) {
	const op = "postgres.GetOrCreateGenre"

	name = strings.ToLower(strings.TrimSpace(name))

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO genres (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id;`, name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (r *Repo) GetGenreName(ctx context.Context, genreID int64) (string, error) {
	const op = "postgres.GetGenreName"

	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM genres WHERE id = $1;`, genreID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrRecordNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return name, nil
}

// DeleteGenre refuses (false, nil) while any movie still references the
// genre. The check and the delete share one transaction.
func (r *Repo) DeleteGenre(ctx context.Context, genreID int64) (bool, error) {
	const op = "postgres.DeleteGenre"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var refs int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM movie_genres WHERE genre_id = $1;`, genreID,
	).Scan(&refs)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if refs > 0 {
		return false, nil
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM genres WHERE id = $1;`, genreID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}

func (r *Repo) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	const op = "postgres.ListGenres"

	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var genres []domain.Genre
	for rows.Next() {
		var g domain.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (r *Repo) CountMovies(ctx context.Context) (int, error) {
	const op = "postgres.CountMovies"

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func (r *Repo) CountMoviesByGenre(ctx context.Context, genreID int64) (int, error) {
	const op = "postgres.CountMoviesByGenre"

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT m.id)
		 FROM movies m
		 JOIN movie_genres mg ON m.id = mg.movie_id
		 WHERE mg.genre_id = $1;`, genreID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

const summaryColumns = `
	m.id,
	m.title,
	COALESCE(STRING_AGG(DISTINCT g.name, ','), '') AS genres,
	COALESCE(m.director, ''),
	m.file_id`

func (r *Repo) ListMoviesPage(ctx context.Context, offset, limit int) ([]domain.MovieSummary, error) {
	const op = "postgres.ListMoviesPage"

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+summaryColumns+`
		 FROM movies m
		 LEFT JOIN movie_genres mg ON m.id = mg.movie_id
		 LEFT JOIN genres g ON mg.genre_id = g.id
		 GROUP BY m.id, m.title, m.director, m.file_id
		 ORDER BY m.id
		 LIMIT $1 OFFSET $2;`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	return scanSummaries(rows, op)
}

func (r *Repo) ListMoviesByGenrePage(ctx context.Context, genreID int64, offset, limit int) ([]domain.MovieSummary, error) {
	const op = "postgres.ListMoviesByGenrePage"

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+summaryColumns+`
		 FROM movies m
		 JOIN movie_genres mg ON m.id = mg.movie_id
		 LEFT JOIN genres g ON mg.genre_id = g.id
		 WHERE mg.genre_id = $1
		 GROUP BY m.id, m.title, m.director, m.file_id
		 ORDER BY m.id
		 LIMIT $2 OFFSET $3;`, genreID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	return scanSummaries(rows, op)
}

func (r *Repo) RandomMovie(ctx context.Context) (domain.MovieSummary, error) {
	const op = "postgres.RandomMovie"

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+summaryColumns+`
		 FROM movies m
		 LEFT JOIN movie_genres mg ON m.id = mg.movie_id
		 LEFT JOIN genres g ON mg.genre_id = g.id
		 GROUP BY m.id, m.title, m.director, m.file_id
		 ORDER BY RANDOM()
		 LIMIT 1;`)
	if err != nil {
		return domain.MovieSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	summaries, err := scanSummaries(rows, op)
	if err != nil {
		return domain.MovieSummary{}, err
	}
	if len(summaries) == 0 {
		return domain.MovieSummary{}, domain.ErrRecordNotFound
	}
	return summaries[0], nil
}

// SearchMovies matches a case-insensitive substring against title,
// director and genre name.
func (r *Repo) SearchMovies(ctx context.Context, query string) ([]domain.MovieSummary, error) {
	const op = "postgres.SearchMovies"

	q := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+summaryColumns+`
		 FROM movies m
		 LEFT JOIN movie_genres mg ON m.id = mg.movie_id
		 LEFT JOIN genres g ON mg.genre_id = g.id
		 WHERE m.title ILIKE $1
		    OR m.director ILIKE $1
		    OR g.name ILIKE $1
		 GROUP BY m.id, m.title, m.director, m.file_id
		 ORDER BY m.title;`, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	return scanSummaries(rows, op)
}

func (r *Repo) RecordWatch(ctx context.Context, userID, movieID int64) error {
	const op = "postgres.RecordWatch"

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO watch_history (user_id, movie_id) VALUES ($1, $2);`,
		userID, movieID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Repo) UserHistory(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	const op = "postgres.UserHistory"

	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id,
		        m.title,
		        COALESCE(STRING_AGG(DISTINCT g.name, ','), '') AS genres,
		        COALESCE(m.director, ''),
		        m.file_id,
		        h.watched_at
		 FROM watch_history h
		 JOIN movies m ON h.movie_id = m.id
		 LEFT JOIN movie_genres mg ON m.id = mg.movie_id
		 LEFT JOIN genres g ON mg.genre_id = g.id
		 WHERE h.user_id = $1
		 GROUP BY m.id, h.id
		 ORDER BY h.watched_at DESC
		 LIMIT $2;`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.MovieID, &e.Title, &e.Genres, &e.Director, &e.FileID, &e.WatchedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanSummaries(rows *sql.Rows, op string) ([]domain.MovieSummary, error) {
	var summaries []domain.MovieSummary
	for rows.Next() {
		var s domain.MovieSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Genres, &s.Director, &s.FileID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
