// Package util provides utility functions for the backend.
//
//revive:disable-next-line:var-naming
package util

import (
	"sort"
	"strings"
)

// NormalizeTags trims whitespace, drops empty names and duplicates, and sorts
// the result. Tag names are case-sensitive, so case is preserved.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}

	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// SplitTags parses a comma separated query value such as "ai,hardware".
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(raw, ","))
}
