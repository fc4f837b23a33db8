package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Shard is one input CSV file and the game type of its rows.
type Shard struct {
	Path     string
	GameType string
}

// Shards resolves file names against dir, tagging each with gameType.
func Shards(dir, gameType string, names ...string) []Shard {
	out := make([]Shard, 0, len(names))
	for _, n := range names {
		p := n
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, n)
		}
		out = append(out, Shard{Path: p, GameType: gameType})
	}
	return out
}

// table is a CSV file indexed by header name.
type table struct {
	shard   Shard
	header  map[string]int
	records [][]string
}

// get returns the value of column col, or false when the column is absent
// from the file or the record is short.
func (t *table) get(rec []string, col string) (string, bool) {
	i, ok := t.header[col]
	if !ok || i >= len(rec) {
		return "", false
	}
	return rec[i], true
}

func readTable(s Shard) (*table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, s.Path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrReadCSV, s.Path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: header: %w", ErrReadCSV, s.Path, err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadCSV, s.Path, err)
	}

	t := &table{shard: s, header: make(map[string]int, len(header)), records: records}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		t.header[strings.TrimSpace(h)] = i
	}
	return t, nil
}

// readShards loads every shard concurrently. Tables keep the shard order.
func readShards(ctx context.Context, shards []Shard) ([]*table, error) {
	if len(shards) == 0 {
		return nil, ErrNoShards
	}
	tables := make([]*table, len(shards))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range shards {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := readTable(s)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}
