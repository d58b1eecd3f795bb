package movieCache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sonofthenation/arcanum/configs"
	"github.com/sonofthenation/arcanum/internal/domain"
)

// Cache stores movie rows in redis keyed by id, JSON-encoded with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(cfg *configs.Config) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RD.Host,
		Username:     cfg.RD.User,
		Password:     cfg.RD.Password,
		DB:           cfg.RD.DB,
		MaxRetries:   cfg.RD.MaxRetries,
		DialTimeout:  cfg.RD.DialTimeout,
		ReadTimeout:  cfg.RD.ReadTimeout,
		WriteTimeout: cfg.RD.WriteTimeout,
	})

	return &Cache{client: client, ttl: cfg.RD.CacheTTL}
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) GetMovieByID(ctx context.Context, movieID int64) (domain.Movie, error) {
	const op = "movieCache.GetMovieByID"

	payload, err := c.client.Get(ctx, key(movieID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Movie{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Movie{}, fmt.Errorf("%s: %w", op, err)
	}

	var movie domain.Movie
	if err := json.Unmarshal(payload, &movie); err != nil {
		return domain.Movie{}, fmt.Errorf("%s: %w", op, err)
	}
	return movie, nil
}

func (c *Cache) SetMovie(ctx context.Context, movie domain.Movie) error {
	const op = "movieCache.SetMovie"

	payload, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.client.Set(ctx, key(movie.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DropMovie invalidates a cached movie after an update or delete.
func (c *Cache) DropMovie(ctx context.Context, movieID int64) error {
	const op = "movieCache.DropMovie"

	if err := c.client.Del(ctx, key(movieID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func key(movieID int64) string {
	return "movie:" + strconv.FormatInt(movieID, 10)
}
