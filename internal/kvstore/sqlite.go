package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	// sqlite driver for the store database.
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on top of a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store instance. Call Open before use.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// NewSQLiteStoreFromDB wraps an already opened database. Migrations are not run.
func NewSQLiteStoreFromDB(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	s := NewSQLiteStore(logger)
	s.db = db
	return s
}

// Open opens the database and applies migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	} else {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}

	s.logger.Debug("opened store", "path", path)
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateTable registers a new table.
func (s *SQLiteStore) CreateTable(ctx context.Context, table string) error {
	if s.db == nil {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO kv_tables (name) VALUES (?)`, table)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("%w: %s", ErrTableExists, table)
		}
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// Tables lists table names in ascending order.
func (s *SQLiteStore) Tables(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM kv_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Put writes a single cell.
func (s *SQLiteStore) Put(ctx context.Context, table, rowKey, column, value string) error {
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_cells (table_name, row_key, column_name, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT (table_name, row_key, column_name) DO UPDATE SET value = excluded.value`,
		table, rowKey, column, value,
	)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s/%s: %w", table, rowKey, column, err)
	}
	return nil
}

// FetchRow returns the full row with columns in ascending name order.
func (s *SQLiteStore) FetchRow(ctx context.Context, table, rowKey string) (Row, error) {
	if err := s.ensureTable(ctx, table); err != nil {
		return Row{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, value FROM kv_cells
		 WHERE table_name = ? AND row_key = ? ORDER BY column_name`,
		table, rowKey,
	)
	if err != nil {
		return Row{}, fmt.Errorf("failed to fetch row %s/%s: %w", table, rowKey, err)
	}
	defer func() { _ = rows.Close() }()

	row := NewRow()
	for rows.Next() {
		var column, value string
		if err := rows.Scan(&column, &value); err != nil {
			return Row{}, err
		}
		row.Set(column, value)
	}
	if err := rows.Err(); err != nil {
		return Row{}, err
	}
	if row.Len() == 0 {
		return Row{}, fmt.Errorf("%w: %s/%s", ErrRowNotFound, table, rowKey)
	}
	return row, nil
}

// Scan visits rows passing the filter in ascending key order.
func (s *SQLiteStore) Scan(ctx context.Context, table string, opts ScanOptions, visit RowVisitor) error {
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	s.logger.Debug("scan", "table", table, "filter", opts.Filter.String(),
		"cache_blocks", opts.CacheBlocks, "caching", opts.Caching)

	query := `SELECT row_key, column_name, value FROM kv_cells WHERE table_name = ?`
	args := []any{table}
	// a row key predicate can be pushed down; everything else is evaluated per row
	if f := opts.Filter; f != nil && f.Column == KeyColumn && f.Op == OpPrefix {
		query += ` AND substr(CAST(row_key AS BLOB), 1, ?) = CAST(? AS BLOB)`
		args = append(args, len(f.Value), f.Value)
	}
	query += ` ORDER BY row_key, column_name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var (
		curKey  string
		cur     Row
		have    bool
		emitted int
	)
	// flush reports whether the scan should continue
	flush := func() bool {
		if !have || !opts.Filter.Match(curKey, cur) {
			return true
		}
		emitted++
		if !visit(curKey, cur) {
			return false
		}
		return opts.Limit < 0 || emitted < opts.Limit
	}

	if opts.Limit == 0 {
		return nil
	}

	for rows.Next() {
		var key, column, value string
		if err := rows.Scan(&key, &column, &value); err != nil {
			return err
		}
		if !have || key != curKey {
			if !flush() {
				return nil
			}
			curKey, cur, have = key, NewRow(), true
		}
		cur.Set(column, value)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", table, err)
	}
	flush()
	return nil
}

// ScanColumnValues returns the values of one column for rows passing the filter.
func (s *SQLiteStore) ScanColumnValues(ctx context.Context, table string, opts ScanOptions, column string) (ScanResult, error) {
	// without a filter the projection is answered straight from the column index
	if opts.Filter == nil {
		return s.scanColumn(ctx, table, column)
	}

	opts.Limit = -1
	var result ScanResult
	err := s.Scan(ctx, table, opts, func(key string, row Row) bool {
		if v, ok := row.Get(column); ok {
			result = append(result, Cell{Key: key, Value: v})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLiteStore) scanColumn(ctx context.Context, table, column string) (ScanResult, error) {
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_key, value FROM kv_cells
		 WHERE table_name = ? AND column_name = ? ORDER BY row_key`,
		table, column,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s.%s: %w", table, column, err)
	}
	defer func() { _ = rows.Close() }()

	var result ScanResult
	for rows.Next() {
		var c Cell
		if err := rows.Scan(&c.Key, &c.Value); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// CountRows counts rows passing the filter.
func (s *SQLiteStore) CountRows(ctx context.Context, table string, opts ScanOptions) (int, error) {
	if opts.Filter == nil {
		if err := s.ensureTable(ctx, table); err != nil {
			return 0, err
		}
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(DISTINCT row_key) FROM kv_cells WHERE table_name = ?`, table,
		).Scan(&n)
		if err != nil {
			return 0, fmt.Errorf("failed to count %s: %w", table, err)
		}
		return n, nil
	}

	opts.Limit = -1
	count := 0
	err := s.Scan(ctx, table, opts, func(string, Row) bool {
		count++
		return true
	})
	return count, err
}

func (s *SQLiteStore) ensureTable(ctx context.Context, table string) error {
	if s.db == nil {
		return ErrStoreClosed
	}

	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM kv_tables WHERE name = ?`, table).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if err != nil {
		return fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return nil
}
