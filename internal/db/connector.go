package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mapaction/mapimporter/internal/retry"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns bounds the connections a server process holds open.
	DefaultMaxConns = 8

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime recycles connections idle for longer than this.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger mapimporter.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	if logger != nil {
		poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
			logger.Verbose("postgres %s: %s", strings.ToLower(notice.Severity), notice.Message)
		}
	}
}

// StandardConnector opens a pool from a libpq connection string or URL,
// retrying transient failures.
type StandardConnector struct {
	connString    string
	logger        mapimporter.Logger
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a connector for connString. logger may be nil.
// Retry behaviour uses DefaultRetryMaxAttempts attempts with exponential
// backoff between DefaultRetryInitialDelay and DefaultRetryMaxDelay.
func NewStandardConnector(connString string, logger mapimporter.Logger) *StandardConnector {
	classifier := retry.NewPostgreSQLErrorClassifier()
	strategy := retry.NewExponentialBackoff(mapimporter.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(mapimporter.DefaultRetryInitialDelay),
		retry.WithMaxDelay(mapimporter.DefaultRetryMaxDelay),
	)

	executor := retry.NewExecutor(classifier, strategy)
	if logger != nil {
		executor = executor.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("connection attempt %d failed, retrying in %s: %v", attempt, delay, err)
		})
	}

	return &StandardConnector{
		connString:    connString,
		logger:        logger,
		retryExecutor: executor,
	}
}

// Connect establishes a connection pool and pings it.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(c.connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w: %v", mapimporter.ErrInvalidConfig, err)
	}
	configurePool(poolConfig, c.logger)

	host := poolConfig.ConnConfig.Host
	port := int(poolConfig.ConnConfig.Port)
	database := poolConfig.ConnConfig.Database

	var pool *pgxpool.Pool
	err = c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, wrapConnectionError(err, host, port, database)
	}

	return pool, nil
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result always matches mapimporter.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var hint string
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		hint = fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port in the catalog connection string`, addr, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		hint = fmt.Sprintf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not reachable`, host)

	case strings.Contains(errStr, "password authentication failed"):
		hint = fmt.Sprintf(`password authentication failed for database "%s"

Check the credentials in MAPIMPORTER_DATABASE_URL or the database.url setting.`, database)

	case strings.Contains(errStr, "does not exist"):
		hint = fmt.Sprintf(`database "%s" does not exist

To create it:
  createdb %s`, database, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		hint = fmt.Sprintf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		hint = "SSL/TLS connection error\n\nCheck the sslmode parameter of the connection string."

	case strings.Contains(errStr, "too many connections"):
		hint = fmt.Sprintf(`too many connections to database "%s"

The server's max_connections limit has been reached.`, database)

	default:
		return fmt.Errorf("failed to connect to database: %w: %w", mapimporter.ErrConnectionFailed, err)
	}

	return fmt.Errorf("%s\n\nOriginal error: %w: %w", hint, mapimporter.ErrConnectionFailed, err)
}

var _ mapimporter.Connector = (*StandardConnector)(nil)
