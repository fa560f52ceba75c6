package federation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"fedsearch/internal/repository"
)

// Resolver extracts object ids from the first column of result rows.
//
// Rows whose width differs from Arity, or whose first column is not an
// integer, are skipped and reported; they never abort the resolution.
type Resolver struct {
	Arity  int
	Logger *slog.Logger
}

// Resolve returns the ids in row order. Duplicates are kept.
func (r Resolver) Resolve(rows []repository.Row) ([]int, []*MalformedRowError) {
	arity := r.Arity
	if arity <= 0 {
		arity = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ids := make([]int, 0, len(rows))
	var skipped []*MalformedRowError
	for i, row := range rows {
		if len(row) != arity {
			mre := &MalformedRowError{Index: i, Width: len(row), Arity: arity}
			logger.Warn("unexpected number of columns in result row", "row", i, "columns", len(row), "want", arity)
			skipped = append(skipped, mre)
			continue
		}
		id, err := IntValue(row[0])
		if err != nil {
			mre := &MalformedRowError{Index: i, Width: len(row), Arity: arity, Reason: fmt.Sprintf("id column: %v", err)}
			logger.Warn("could not read object id from result row", "row", i, "value", row[0], "error", err)
			skipped = append(skipped, mre)
			continue
		}
		ids = append(ids, id)
	}
	return ids, skipped
}

// Project applies p to every row of the expected width. Rows with the wrong
// width, or that p rejects, are skipped and reported.
func Project(rows []repository.Row, p Projector, logger *slog.Logger) ([]repository.Object, []*MalformedRowError) {
	if logger == nil {
		logger = slog.Default()
	}
	arity := p.Arity()

	out := make([]repository.Object, 0, len(rows))
	var skipped []*MalformedRowError
	for i, row := range rows {
		if len(row) != arity {
			logger.Warn("unexpected number of columns in result row", "row", i, "columns", len(row), "want", arity)
			skipped = append(skipped, &MalformedRowError{Index: i, Width: len(row), Arity: arity})
			continue
		}
		obj, err := p.Project(row)
		if err != nil {
			logger.Warn("could not project result row", "row", i, "error", err)
			skipped = append(skipped, &MalformedRowError{Index: i, Width: len(row), Arity: arity, Reason: err.Error()})
			continue
		}
		out = append(out, obj)
	}
	return out, skipped
}

// IntValue converts a column value holding an integer id.
func IntValue(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("value is null")
	case int:
		return t, nil
	case int8:
		return int(t), nil
	case int16:
		return int(t), nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case uint8:
		return int(t), nil
	case uint16:
		return int(t), nil
	case uint32:
		return int(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, fmt.Errorf("value %d out of range", t)
		}
		return int(t), nil
	case float32:
		return floatID(float64(t))
	case float64:
		return floatID(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", t.String())
		}
		return floatID(f)
	case string:
		return parseIntString(t)
	case []byte:
		return parseIntString(string(t))
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

func floatID(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	return int(f), nil
}

func parseIntString(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("value %q is not an integer", s)
	}
	return n, nil
}

// StringValue renders a column value, mapping null to "".
func StringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
