// Package legacy reads the flat key-value preference stores left behind by
// installations that predate the structured preference record. Sources are
// read-only and consulted only during migration.
package legacy

import (
	"context"
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/hmiyake/taskprefs/internal/model"
)

// KeySortOrder is the only legacy key the migration consults.
const KeySortOrder = "sort_order"

// DefaultSortOrderValue is assumed when the legacy store has no sort_order key.
const DefaultSortOrderValue = "NONE"

// Source is a flat string-to-string lookup. Get reports whether the key was
// present; absence is not an error.
type Source interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

// ParseError reports a legacy value that does not name any sort order
// variant. Callers distinguish it from plain read failures with errors.As.
type ParseError struct {
	Key   string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("legacy preference %q: cannot parse %q as sort order", e.Key, e.Value)
}

var legacySortOrders = map[string]model.SortOrder{
	"NONE":                     model.SortOrderNone,
	"BY_DEADLINE":              model.SortOrderByDeadline,
	"BY_PRIORITY":              model.SortOrderByPriority,
	"BY_DEADLINE_AND_PRIORITY": model.SortOrderByDeadlineAndPriority,
}

// ParseSortOrder maps a legacy sort_order value onto the structured enum.
func ParseSortOrder(value string) (model.SortOrder, error) {
	order, ok := legacySortOrders[value]
	if !ok {
		return "", &ParseError{Key: KeySortOrder, Value: value}
	}
	return order, nil
}

// FileSource reads legacy preferences from a flat YAML map file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read legacy preferences %s: %w", s.path, err)
	}

	var kv map[string]string
	if err := yamlv3.Unmarshal(content, &kv); err != nil {
		return "", false, fmt.Errorf("parse legacy preferences %s: %w", s.path, err)
	}

	value, ok := kv[key]
	return value, ok, nil
}
