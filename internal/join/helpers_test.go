package join

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

// fetchFunc adapts a function to kvstore.RowFetcher.
type fetchFunc func(table, key string) (kvstore.Row, error)

func (f fetchFunc) FetchRow(_ context.Context, table, key string) (kvstore.Row, error) {
	return f(table, key)
}

// scan builds a ScanResult from alternating key, value arguments.
func scan(kv ...string) kvstore.ScanResult {
	var r kvstore.ScanResult
	for i := 0; i+1 < len(kv); i += 2 {
		r = append(r, kvstore.Cell{Key: kv[i], Value: kv[i+1]})
	}
	return r
}

// joinValueFetcher returns rows holding only the join value plus a side tag.
func joinValueFetcher(left, right kvstore.ScanResult) kvstore.RowFetcher {
	index := func(s kvstore.ScanResult) map[string]string {
		m := make(map[string]string, len(s))
		for _, c := range s {
			m[c.Key] = c.Value
		}
		return m
	}
	l, r := index(left), index(right)
	return fetchFunc(func(table, key string) (kvstore.Row, error) {
		src := l
		if table == "right" {
			src = r
		}
		v, ok := src[key]
		if !ok {
			return kvstore.Row{}, fmt.Errorf("%w: %s/%s", kvstore.ErrRowNotFound, table, key)
		}
		return kvstore.RowOf(map[string]string{"cf:v": v, table + ":key": key}), nil
	})
}

func sortedPairs(pairs []Pair) []Pair {
	out := append([]Pair(nil), pairs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Left != out[j].Left {
			return out[i].Left < out[j].Left
		}
		return out[i].Right < out[j].Right
	})
	return out
}

// bruteForcePairs counts value-equal pairs without any executor.
func bruteForcePairs(left, right kvstore.ScanResult) []Pair {
	var pairs []Pair
	for _, l := range left {
		for _, r := range right {
			if l.Value == r.Value {
				pairs = append(pairs, Pair{Left: l.Key, Right: r.Key})
			}
		}
	}
	return pairs
}

// seedStore creates a memory store with two small tables:
//
//	customers: c1..c4 with cf:id and cf:name
//	orders:    o1..o5 with cf:id (customer) and cf:total
func seedStore(t *testing.T) *kvstore.MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := kvstore.NewMemoryStore(nil)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.CreateTable(ctx, "customers"))
	require.NoError(t, s.CreateTable(ctx, "orders"))

	customers := []struct{ key, id, name string }{
		{"c1", "1", "alice"},
		{"c2", "2", "bob"},
		{"c3", "3", "carol"},
		{"c4", "4", "dave"},
	}
	for _, c := range customers {
		require.NoError(t, s.Put(ctx, "customers", c.key, "cf:id", c.id))
		require.NoError(t, s.Put(ctx, "customers", c.key, "cf:name", c.name))
	}

	orders := []struct{ key, id, total string }{
		{"o1", "1", "30"},
		{"o2", "2", "5"},
		{"o3", "1", "12"},
		{"o4", "3", "12"},
		{"o5", "9", "99"},
	}
	for _, o := range orders {
		require.NoError(t, s.Put(ctx, "orders", o.key, "cf:id", o.id))
		require.NoError(t, s.Put(ctx, "orders", o.key, "cf:total", o.total))
	}
	return s
}
