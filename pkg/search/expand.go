package search

import (
	"fmt"
	"strings"
)

// RecencyWindows are the time ranges fanned out by engines that support
// date-restricted search: day, week, month.
var RecencyWindows = []string{"d", "w", "m"}

// ExpandQueries produces recall variants of a keyword plus the recency
// windows to fan out. An empty keyword expands to nothing.
func ExpandQueries(keyword string) ([]string, []string) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return nil, nil
	}
	variants := []string{
		kw,
		fmt.Sprintf("%q", kw),
		kw + " filetype:pdf",
		kw + " site:gov",
		kw + " site:edu",
	}
	return variants, RecencyWindows
}
