package cosmos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"golang.org/x/time/rate"

	"github.com/xraph/cosmoq/backoff"
	"github.com/xraph/cosmoq/layout"
	"github.com/xraph/cosmoq/storage"
)

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// Store is an Azure Cosmos DB implementation of storage.Store.
type Store struct {
	client *azcosmos.Client
	db     *azcosmos.DatabaseClient
	layout *layout.Resolver

	// containers caches one ContainerClient per container name from the
	// layout. Built once at construction; read-only afterwards.
	containers map[string]*azcosmos.ContainerClient

	cfg        Config
	logger     *slog.Logger
	retry      backoff.Strategy
	maxRetries int
	limiter    *rate.Limiter
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithBackoff sets the retry strategy for throttled (429) responses.
func WithBackoff(strategy backoff.Strategy) Option {
	return func(s *Store) {
		s.retry = strategy
	}
}

// WithMaxRetries sets how many times a throttled request is retried before
// the 429 is surfaced. Default 5.
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		s.maxRetries = n
	}
}

// WithWriteRateLimit applies a client-side token-bucket limit on writes,
// in operations per second. Useful when sharing a container's throughput
// budget with other consumers.
func WithWriteRateLimit(opsPerSecond float64, burst int) Option {
	return func(s *Store) {
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opsPerSecond), burst)
	}
}

// New creates a Cosmos-backed store routing through the given layout
// resolver. It validates the config and builds container clients but
// performs no I/O; call Provision before first use on a fresh account.
func New(cfg Config, lay *layout.Resolver, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lay == nil {
		return nil, errors.New("cosmoq/cosmos: layout resolver is required")
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	db, err := client.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("cosmoq/cosmos: database %q: %w", cfg.Database, err)
	}

	s := &Store{
		client:     client,
		db:         db,
		layout:     lay,
		cfg:        cfg,
		logger:     slog.Default(),
		retry:      backoff.DefaultStrategy(),
		maxRetries: 5,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.containers = make(map[string]*azcosmos.ContainerClient)
	for _, name := range lay.Containers() {
		c, err := db.NewContainer(name)
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: container %q: %w", name, err)
		}
		s.containers[name] = c
	}

	return s, nil
}

// container returns the cached client for a resolved container name.
func (s *Store) container(name string) (*azcosmos.ContainerClient, error) {
	c, ok := s.containers[name]
	if !ok {
		return nil, fmt.Errorf("cosmoq/cosmos: container %q not in layout", name)
	}
	return c, nil
}

// Ping reads the database to check connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.db.Read(ctx, nil); err != nil {
		return fmt.Errorf("cosmoq/cosmos: ping: %w", err)
	}
	return nil
}

// Close is a no-op; the underlying azcosmos client has no close.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Request plumbing — throttling and error mapping
// ──────────────────────────────────────────────────

// do runs op, retrying on 429 per the configured backoff. The limiter, if
// set, is awaited first so client-side smoothing happens before the request
// ever leaves the process.
func (s *Store) do(ctx context.Context, name string, op func() error) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("cosmoq/cosmos: %s: rate limit wait: %w", name, err)
		}
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || !isThrottled(err) || attempt >= s.maxRetries {
			return err
		}

		delay := s.retry.Delay(attempt + 1)
		s.logger.Warn("cosmos request throttled, retrying",
			"op", name, "attempt", attempt+1, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func statusCode(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

func isThrottled(err error) bool {
	return statusCode(err) == http.StatusTooManyRequests
}

func isNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

func isConflict(err error) bool {
	return statusCode(err) == http.StatusConflict
}

func isPreconditionFailed(err error) bool {
	return statusCode(err) == http.StatusPreconditionFailed
}
