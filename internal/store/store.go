package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/roach88/nodeql/internal/logger"
	"github.com/roach88/nodeql/internal/specsql"
)

//go:embed schema.sql
var schemaSQL string

//go:embed schema_postgres.sql
var schemaPostgresSQL string

// Schema version tracking (SQLite user_version):
// 0 - Initial schema (pre-migration)
// 1 - Added index on node_reference_attribute_value value columns
const currentSchemaVersion = 1

var tracer = otel.Tracer("nodeql/internal/store")

// Store executes compiled specifications against a relational database.
type Store struct {
	db       *sql.DB
	dialect  specsql.Dialect
	stbl     sq.StatementBuilderType
	compiler *specsql.SQLCompiler
	logger   logger.Logger

	registerer       prometheus.Registerer
	dbStatsCollector prometheus.Collector
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithMetrics registers a database/sql stats collector with reg. The
// collector is unregistered on Close.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Store) {
		s.registerer = reg
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The path ":memory:" opens a private in-memory database; the pool is
// limited to one connection so every statement sees the same database.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return newStore(db, specsql.SQLite, sq.StatementBuilder.PlaceholderFormat(sq.Question), opts)
}

// OpenPostgres connects to PostgreSQL at dsn and creates the schema if it
// is missing.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaPostgresSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return newStore(db, specsql.Postgres, sq.StatementBuilder.PlaceholderFormat(sq.Dollar), opts)
}

func newStore(db *sql.DB, dialect specsql.Dialect, stbl sq.StatementBuilderType, opts []Option) (*Store, error) {
	s := &Store{
		db:       db,
		dialect:  dialect,
		stbl:     stbl.RunWith(db),
		compiler: &specsql.SQLCompiler{Table: "node", Dialect: dialect},
		logger:   logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registerer != nil {
		collector := collectors.NewDBStatsCollector(db, "nodeql")
		if err := s.registerer.Register(collector); err != nil {
			db.Close()
			return nil, fmt.Errorf("register db stats collector: %w", err)
		}
		s.dbStatsCollector = collector
	}

	return s, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.dbStatsCollector != nil {
		s.registerer.Unregister(s.dbStatsCollector)
		s.dbStatsCollector = nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect reports which SQL dialect the store speaks.
func (s *Store) Dialect() specsql.Dialect {
	return s.dialect
}

func (s *Store) startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	system := "sqlite"
	if s.dialect == specsql.Postgres {
		system = "postgresql"
	}
	return tracer.Start(ctx, "store."+name, trace.WithAttributes(attribute.String("db.system", system)))
}

func (s *Store) logQuery(ctx context.Context, op, query string, args []any) {
	s.logger.DebugWithContext(ctx, "store query",
		zap.String("op", op),
		zap.String("sql", query),
		zap.Int("params", len(args)),
	)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes reference values by target so referrer and resolved
// path lookups avoid a scan.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reference_value
		ON node_reference_attribute_value(value_graph_id, value_type_id, value_id, attribute_id)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
