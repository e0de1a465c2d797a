package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Result operations

func (s *Storage) SaveResult(ctx context.Context, result *model.GameResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	key := resultsKey(result.RoomID)

	// Use pipeline for atomic append + TTL refresh
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.cfg.ResultTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.ResultTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetResultsForRoom(ctx context.Context, roomID model.RoomID) ([]*model.GameResult, error) {
	values, err := s.client.LRange(ctx, resultsKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return nil, model.ErrResultsNotFound
	}

	results := make([]*model.GameResult, 0, len(values))
	for _, val := range values {
		var result model.GameResult
		if err := json.Unmarshal([]byte(val), &result); err != nil {
			continue // Skip invalid data
		}
		results = append(results, &result)
	}

	return results, nil
}

func (s *Storage) DeleteResultsForRoom(ctx context.Context, roomID model.RoomID) error {
	return s.client.Del(ctx, resultsKey(roomID)).Err()
}
