package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/sudoku-race/internal/api"
	"github.com/mcoot/sudoku-race/internal/dependencies/clock"
	"github.com/mcoot/sudoku-race/internal/dependencies/random"
	"github.com/mcoot/sudoku-race/internal/services/protocol"
	"github.com/mcoot/sudoku-race/internal/services/puzzle"
	"github.com/mcoot/sudoku-race/internal/services/registry"
	"github.com/mcoot/sudoku-race/internal/services/session"
	"github.com/mcoot/sudoku-race/internal/storage"
	"github.com/mcoot/sudoku-race/internal/storage/memory"
	redisstorage "github.com/mcoot/sudoku-race/internal/storage/redis"
	"github.com/mcoot/sudoku-race/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	PuzzleService puzzle.Generator
	Store         *session.Store
	Registry      *registry.Registry
	Engine        *protocol.Engine

	// Handler serves the admin API, the /ws player protocol and SSE watch streams
	Handler http.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the results archive backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Session holds the engine's background task timings
	// If zero value, defaults to protocol.DefaultConfig()
	Session protocol.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	sessionCfg := cfg.Session
	if sessionCfg == (protocol.Config{}) {
		sessionCfg = protocol.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, puzzle.New(rnd, logger), sessionCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	puzzles puzzle.Generator,
	sessionCfg protocol.Config,
	logger *slog.Logger,
) *App {
	sessions := session.New(puzzles, clk, rnd, logger)
	reg := registry.New(logger)
	engine := protocol.New(sessions, reg, store, clk, sessionCfg, logger)

	handler := api.NewRouter(api.RouterConfig{
		Logger:    logger,
		Store:     sessions,
		Puzzles:   puzzles,
		Storage:   store,
		Watcher:   engine,
		WebSocket: ws.NewHandler(engine, logger),
	})

	return &App{
		Storage:       store,
		Clock:         clk,
		Random:        rnd,
		PuzzleService: puzzles,
		Store:         sessions,
		Registry:      reg,
		Engine:        engine,
		Handler:       handler,
	}
}

// Close stops background tasks and releases the storage backend
func (a *App) Close() error {
	a.Engine.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
