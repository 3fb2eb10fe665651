package store

import (
	"fmt"
	"net/url"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"
)

// Dialect captures the per-backend SQL differences the receipt store has
// to care about: positional placeholder style and the server-side
// timestamp expression used when stamping status updates.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectMySQL
	DialectSQLite
	DialectOracle
)

// Placeholder returns the positional parameter marker for 1-based index n.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case DialectPostgres:
		return fmt.Sprintf("$%d", n)
	case DialectOracle:
		return fmt.Sprintf(":%d", n)
	default:
		return "?"
	}
}

// NowExpr returns the expression for the current server timestamp.
func (d Dialect) NowExpr() string {
	switch d {
	case DialectPostgres, DialectMySQL:
		return "NOW()"
	case DialectOracle:
		return "SYSTIMESTAMP"
	default:
		return "CURRENT_TIMESTAMP"
	}
}

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	case DialectOracle:
		return "oracle"
	default:
		return "unknown"
	}
}

func postgresDSN(cfg Config) string {
	host := defaultString(cfg.Host, "localhost")
	port := defaultInt(cfg.Port, 5432)
	name := defaultString(cfg.Name, "postgres")
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + name,
	}
	return u.String()
}

func mysqlDSN(cfg Config) string {
	host := defaultString(cfg.Host, "localhost")
	port := defaultInt(cfg.Port, 3306)
	// parseTime makes timestamp columns scan as time.Time.
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.User, cfg.Password, host, port, cfg.Name)
}

func sqliteDSN(cfg Config) string {
	return defaultString(cfg.Path, ":memory:")
}

func oracleDSN(cfg Config) string {
	host := defaultString(cfg.Host, "localhost")
	port := defaultInt(cfg.Port, 1521)
	u := url.URL{
		Scheme: "oracle",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + cfg.Name,
	}
	return u.String()
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
