// Package kvstore provides the wide-column key-value store behind the leapkv shell.
//
// A table is an ordered set of rows keyed by an opaque row key. Each row holds
// any number of named columns (conventionally "family:qualifier") with byte
// string values. Two backends are provided: MemoryStore (btree backed) and
// SQLiteStore (database/sql over modernc.org/sqlite).
package kvstore

import (
	"context"
	"errors"
	"sort"
)

// Sentinel errors returned by store implementations.
var (
	ErrTableNotFound = errors.New("table not found")
	ErrTableExists   = errors.New("table already exists")
	ErrRowNotFound   = errors.New("row not found")
	ErrStoreClosed   = errors.New("store is closed")
)

// Cell is a single row key / value pair emitted by a column scan.
type Cell struct {
	Key   string
	Value string
}

// ScanResult is the output of a column scan in emission order (ascending by row key).
type ScanResult []Cell

// Keys returns the row keys in emission order.
func (r ScanResult) Keys() []string {
	keys := make([]string, len(r))
	for i, c := range r {
		keys[i] = c.Key
	}
	return keys
}

// Row is an ordered mapping of column name to value.
// Column order is insertion order.
type Row struct {
	columns []string
	values  map[string]string
}

// NewRow creates an empty row.
func NewRow() Row {
	return Row{values: make(map[string]string)}
}

// RowOf builds a row from a plain map, ordering columns by name.
func RowOf(m map[string]string) Row {
	r := NewRow()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.Set(name, m[name])
	}
	return r
}

// Set stores a value, appending the column if it is new.
func (r *Row) Set(column, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Get returns the value of a column.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns the column names in insertion order.
func (r Row) Columns() []string {
	return r.columns
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.columns)
}

// ScanOptions controls a scan or count.
type ScanOptions struct {
	// Filter restricts the rows visited. Nil matches every row.
	Filter *Filter
	// CacheBlocks asks the backend to keep scanned blocks in its cache.
	CacheBlocks bool
	// Caching is the number of rows fetched per batch (0 uses the backend default).
	Caching int
	// Limit caps the number of rows emitted by Scan (negative means unlimited).
	Limit int
}

// DefaultScanOptions returns unfiltered, unlimited scan options.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{Limit: -1}
}

// Scanner produces the join-column projection of a table.
type Scanner interface {
	// ScanColumnValues returns rowKey -> value for every row that passes the
	// filter and has the column, in ascending row key order.
	ScanColumnValues(ctx context.Context, table string, opts ScanOptions, column string) (ScanResult, error)
}

// RowFetcher looks up a full row.
type RowFetcher interface {
	FetchRow(ctx context.Context, table, rowKey string) (Row, error)
}

// Counter counts rows that pass a filter.
type Counter interface {
	CountRows(ctx context.Context, table string, opts ScanOptions) (int, error)
}

// RowVisitor is called for each row of a Scan. Returning false stops the scan.
type RowVisitor func(key string, row Row) bool

// Store is the full store contract used by the shell.
type Store interface {
	Scanner
	RowFetcher
	Counter

	CreateTable(ctx context.Context, table string) error
	Tables(ctx context.Context) ([]string, error)
	Put(ctx context.Context, table, rowKey, column, value string) error
	Scan(ctx context.Context, table string, opts ScanOptions, visit RowVisitor) error
	Close() error
}
