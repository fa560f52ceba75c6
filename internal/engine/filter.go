package engine

import (
	"path"
	"strings"

	"fedsearch/internal/config"
)

// FilterDomains drops disabled entries, applies --include/--exclude and then
// --max-domains. The result keeps the file order.
func FilterDomains(entries []config.DomainEntry, cfg *config.Config) []config.DomainEntry {
	if cfg == nil {
		panic("engine.FilterDomains: cfg must not be nil")
	}

	includePatterns := cfg.Domains.Include
	excludePatterns := cfg.Domains.Exclude

	var filtered []config.DomainEntry
	for _, e := range entries {
		if e.Disabled {
			continue
		}

		// If Include is set, must match at least one
		if len(includePatterns) > 0 && !matchesAnyPattern(includePatterns, e.Name) {
			continue
		}

		// If Exclude is set, must not match any
		if len(excludePatterns) > 0 && matchesAnyPattern(excludePatterns, e.Name) {
			continue
		}

		filtered = append(filtered, e)
	}

	if cfg.Domains.MaxDomains > 0 && len(filtered) > cfg.Domains.MaxDomains {
		filtered = filtered[:cfg.Domains.MaxDomains]
	}

	return filtered
}

func matchesAnyPattern(patterns []string, name string) bool {
	for _, p := range patterns {
		if matchPattern(p, name) {
			return true
		}
	}
	return false
}

// matchPattern matches case-insensitively; domain names are conventionally
// upper case but patterns are often typed in lower case.
func matchPattern(pattern, name string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	matched, _ := path.Match(strings.ToUpper(pattern), strings.ToUpper(name))
	return matched
}

func hasGlobChars(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
