package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CheckParams rejects parameters s does not declare, reports missing required
// ones and returns params with declared defaults filled in.
func CheckParams(s Search, params map[string]string) (map[string]string, error) {
	declared := make(map[string]Option, len(s.Options()))
	for _, o := range s.Options() {
		declared[o.Name] = o
	}

	var unknown []string
	for k := range params {
		if _, ok := declared[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("search %s: unknown parameter(s): %s", s.ID(), strings.Join(unknown, ", "))
	}

	out := make(map[string]string, len(declared))
	for name, o := range declared {
		v, ok := params[name]
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			if o.Required {
				return nil, fmt.Errorf("search %s: parameter %s is required", s.ID(), name)
			}
			v = o.Default
		}
		if v != "" {
			out[name] = v
		}
	}
	return out, nil
}

// Int parses the named integer parameter.
func Int(params map[string]string, name string) (int, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("parameter %s is required", name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be an integer, got %q", name, v)
	}
	return n, nil
}

// Float parses the named decimal parameter.
func Float(params map[string]string, name string) (float64, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("parameter %s is required", name)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be a number, got %q", name, v)
	}
	return f, nil
}

// Quote renders s as a SQL string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
