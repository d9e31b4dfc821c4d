package kvstore

// load.go - CSV seed data loading

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadCSV loads CSV rows into a table. The first column of every record is the
// row key; the header names the remaining columns. The table is created if it
// does not exist. Empty cells are skipped. Returns the number of rows loaded.
func LoadCSV(ctx context.Context, store Store, table string, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("empty csv for table %s", table)
		}
		return 0, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) < 2 {
		return 0, fmt.Errorf("csv header needs a row key column and at least one value column, got %d columns", len(header))
	}

	if err := store.CreateTable(ctx, table); err != nil && !errors.Is(err, ErrTableExists) {
		return 0, err
	}

	loaded := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return loaded, fmt.Errorf("failed to read csv record %d: %w", loaded+1, err)
		}
		if len(record) == 0 || record[0] == "" {
			continue
		}

		key := record[0]
		for i := 1; i < len(record) && i < len(header); i++ {
			if record[i] == "" {
				continue
			}
			if err := store.Put(ctx, table, key, header[i], record[i]); err != nil {
				return loaded, err
			}
		}
		loaded++
	}

	return loaded, nil
}

// LoadCSVFile is LoadCSV over a file path.
func LoadCSVFile(ctx context.Context, store Store, table, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return LoadCSV(ctx, store, table, f)
}
