package kvstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/btree"
)

// btreeDegree is the branching factor of the per-table btrees.
const btreeDegree = 16

type memRow struct {
	key     string
	columns map[string]string
}

func lessRow(a, b *memRow) bool {
	return a.key < b.key
}

// MemoryStore is an in-process Store keeping each table in a btree ordered by row key.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*btree.BTreeG[*memRow]
	closed bool
	logger *slog.Logger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty memory store.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MemoryStore{
		tables: make(map[string]*btree.BTreeG[*memRow]),
		logger: logger,
	}
}

// CreateTable creates an empty table.
func (m *MemoryStore) CreateTable(_ context.Context, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if _, ok := m.tables[table]; ok {
		return fmt.Errorf("%w: %s", ErrTableExists, table)
	}
	m.tables[table] = btree.NewG(btreeDegree, lessRow)
	m.logger.Debug("created table", "table", table)
	return nil
}

// Tables lists table names in ascending order.
func (m *MemoryStore) Tables(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Put writes a single cell, creating the row if needed.
func (m *MemoryStore) Put(_ context.Context, table, rowKey, column, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tree, err := m.table(table)
	if err != nil {
		return err
	}

	row, ok := tree.Get(&memRow{key: rowKey})
	if !ok {
		row = &memRow{key: rowKey, columns: make(map[string]string)}
		tree.ReplaceOrInsert(row)
	}
	row.columns[column] = value
	return nil
}

// FetchRow returns the full row with columns in ascending name order.
func (m *MemoryStore) FetchRow(_ context.Context, table, rowKey string) (Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tree, err := m.table(table)
	if err != nil {
		return Row{}, err
	}
	row, ok := tree.Get(&memRow{key: rowKey})
	if !ok {
		return Row{}, fmt.Errorf("%w: %s/%s", ErrRowNotFound, table, rowKey)
	}
	return RowOf(row.columns), nil
}

// Scan visits rows passing the filter in ascending key order.
func (m *MemoryStore) Scan(_ context.Context, table string, opts ScanOptions, visit RowVisitor) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tree, err := m.table(table)
	if err != nil {
		return err
	}

	m.logger.Debug("scan", "table", table, "filter", opts.Filter.String(), "cache_blocks", opts.CacheBlocks)

	emitted := 0
	tree.Ascend(func(r *memRow) bool {
		if opts.Limit >= 0 && emitted >= opts.Limit {
			return false
		}
		row := RowOf(r.columns)
		if !opts.Filter.Match(r.key, row) {
			return true
		}
		emitted++
		return visit(r.key, row)
	})
	return nil
}

// ScanColumnValues returns the values of one column for rows passing the filter.
func (m *MemoryStore) ScanColumnValues(ctx context.Context, table string, opts ScanOptions, column string) (ScanResult, error) {
	opts.Limit = -1
	var result ScanResult
	err := m.Scan(ctx, table, opts, func(key string, row Row) bool {
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

// CountRows counts rows passing the filter.
func (m *MemoryStore) CountRows(ctx context.Context, table string, opts ScanOptions) (int, error) {
	opts.Limit = -1
	count := 0
	err := m.Scan(ctx, table, opts, func(string, Row) bool {
		count++
		return true
	})
	return count, err
}

// Close releases the store. Further calls fail with ErrStoreClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.tables = nil
	return nil
}

// table must be called with m.mu held.
func (m *MemoryStore) table(name string) (*btree.BTreeG[*memRow], error) {
	if m.closed {
		return nil, ErrStoreClosed
	}
	tree, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return tree, nil
}
