// Package store provides the record store gateway used by the
// reconciliation pipeline.
//
// One Gateway wraps one database/sql connection. Four backends are
// interchangeable behind it, selected by the Type tag in Config:
// postgres (jackc/pgx), mysql (go-sql-driver), sqlite (modernc.org) and
// oracle (sijms/go-ora). The pipeline shares a single gateway across
// extraction, duplicate checks and status updates within one run;
// single-writer discipline is assumed.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNotConnected indicates an operation before Connect succeeded.
	ErrNotConnected = errors.New("store: not connected")

	// ErrUnsupportedType indicates an unknown database type tag.
	ErrUnsupportedType = errors.New("store: unsupported database type")
)

// Row is one result row keyed by column name as reported by the driver.
type Row map[string]any

// Gateway is the uniform query/update capability over one backing store.
// A Query error is distinct from zero rows: (nil, err) signals failure,
// ([]Row{}, nil) signals an empty result.
type Gateway interface {
	Connect(ctx context.Context) error
	Connected() bool
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	Update(ctx context.Context, query string, args ...any) error
	Dialect() Dialect
	Close() error
}

// DefaultTable is the receipt details table name used when config leaves
// it unset.
const DefaultTable = "RECEIPT_DETAILS"

// Config selects and parameterizes a backend. Unset fields default from
// process configuration before reaching this package.
type Config struct {
	Type     string `koanf:"type"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Name     string `koanf:"name"` // database name, or Oracle service name
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Path     string `koanf:"path"` // sqlite file path
	Table    string `koanf:"table"`
}

// New creates a Gateway for the configured backend. The connection is not
// opened until Connect is called.
func New(cfg Config, logger *zap.Logger) (Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver, dsn, dialect, err := resolveBackend(cfg)
	if err != nil {
		return nil, err
	}

	return &sqlGateway{
		driver:  driver,
		dsn:     dsn,
		dialect: dialect,
		logger:  logger,
	}, nil
}

// sqlGateway implements Gateway over database/sql. Update relies on the
// driver's autocommit discipline: a statement either applies fully or
// reports an error, never partially.
type sqlGateway struct {
	driver  string
	dsn     string
	dialect Dialect
	logger  *zap.Logger

	mu sync.Mutex
	db *sql.DB
}

func (g *sqlGateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db != nil {
		return nil
	}

	db, err := sql.Open(g.driver, g.dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", g.driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping %s: %w", g.driver, err)
	}

	g.db = db
	g.logger.Info("store connected", zap.String("driver", g.driver))
	return nil
}

func (g *sqlGateway) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return false
	}
	return g.db.Ping() == nil
}

func (g *sqlGateway) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	g.mu.Lock()
	db := g.db
	g.mu.Unlock()
	if db == nil {
		return nil, ErrNotConnected
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (g *sqlGateway) Update(ctx context.Context, query string, args ...any) error {
	g.mu.Lock()
	db := g.db
	g.mu.Unlock()
	if db == nil {
		return ErrNotConnected
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

func (g *sqlGateway) Dialect() Dialect {
	return g.dialect
}

func (g *sqlGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}

// normalizeValue flattens driver-specific scan types. Byte slices become
// strings so rows survive the trip through map[string]any.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return v
	}
}

// supportedTypes lists the accepted Config.Type tags.
func supportedTypes() []string {
	return []string{"postgres", "postgresql", "mysql", "sqlite", "sqlite3", "oracle"}
}

func resolveBackend(cfg Config) (driver, dsn string, dialect Dialect, err error) {
	switch strings.ToLower(cfg.Type) {
	case "postgres", "postgresql":
		return "pgx", postgresDSN(cfg), DialectPostgres, nil
	case "mysql":
		return "mysql", mysqlDSN(cfg), DialectMySQL, nil
	case "sqlite", "sqlite3":
		return "sqlite", sqliteDSN(cfg), DialectSQLite, nil
	case "oracle":
		return "oracle", oracleDSN(cfg), DialectOracle, nil
	default:
		return "", "", 0, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedType, cfg.Type, strings.Join(supportedTypes(), ", "))
	}
}
