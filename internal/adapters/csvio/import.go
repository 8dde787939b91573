// Package csvio reads book logs from CSV and writes ranking exports.
package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	repository "github.com/okian/bookarena/internal/adapters/repository"
	"github.com/okian/bookarena/internal/domain/model"
	"github.com/okian/bookarena/internal/domain/rating"
	"github.com/okian/bookarena/pkg/metrics"
)

// Columns a book log must carry. Matching is case-insensitive.
var requiredColumns = []string{"title", "author", "rating"}

// Library is what an import reads existing books from and writes new ones to.
type Library interface {
	repository.ItemSource
	repository.ItemWriter
}

// Parse reads every row of r into items with their initial skill. Any row
// with a rating that is not a number in [1, 10] fails the whole parse.
func Parse(r io.Reader) ([]model.Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file, expected %s", ErrMissingColumn, strings.Join(requiredColumns, ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %q, expected %s", ErrMissingColumn, col, strings.Join(requiredColumns, ", "))
		}
	}

	field := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var items []model.Item
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		raw := field(row, "rating")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || !rating.ValidInput(value) {
			return nil, fmt.Errorf("%w: %q on line %d, must be a number from 1 to 10", ErrInvalidRating, raw, line)
		}
		items = append(items, model.Item{
			Title:  field(row, "title"),
			Author: field(row, "author"),
			Rating: value,
			Skill:  rating.InitialSkill(value),
		})
	}
	return items, nil
}

// Import adds the books in r that lib does not already hold. Duplicates are
// matched on title and author ignoring case, both against lib and within r.
// It returns how many books were added.
func Import(ctx context.Context, r io.Reader, lib Library) (int, error) {
	parsed, err := Parse(r)
	if err != nil {
		return 0, err
	}
	existing, err := lib.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load existing books: %w", err)
	}

	seen := make(map[string]struct{}, len(existing)+len(parsed))
	for _, it := range existing {
		seen[key(it)] = struct{}{}
	}
	fresh := make([]model.Item, 0, len(parsed))
	for _, it := range parsed {
		k := key(it)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		fresh = append(fresh, it)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	n, err := lib.AddItems(ctx, fresh)
	if err != nil {
		return 0, fmt.Errorf("add books: %w", err)
	}
	metrics.RecordItemsImported(n)
	return n, nil
}

// ImportFile opens path and imports it. The path must name a .csv file.
func ImportFile(ctx context.Context, path string, lib Library) (int, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return 0, fmt.Errorf("%w: %s", ErrNotCSV, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Import(ctx, f, lib)
}

func key(it model.Item) string {
	return strings.ToLower(it.Title) + "\x00" + strings.ToLower(it.Author)
}
