package core

import (
	"fmt"
	"strings"
)

// NormalizeColumns turns raw header cells into usable column names.
// Blank headers become "Unnamed: <index>" and repeated names get a ".1",
// ".2", ... suffix, matching how spreadsheet readers usually label them.
func NormalizeColumns(headers []string) []string {
	out := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	counts := make(map[string]int, len(headers))

	for i, h := range headers {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			counts[h]++
			name = fmt.Sprintf("%s.%d", h, counts[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
