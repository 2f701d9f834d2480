package session

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// WriteReport renders the aggregated markdown report for a finished
// session.
func WriteReport(path string, result *Result) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Research Report: %s\n\n", result.QueryText)
	fmt.Fprintf(&sb, "Session `%s` — %s\n\n", result.QueryID, result.Status)

	sb.WriteString("## Enhanced Query\n\n")
	if result.EnhancedQuery != "" {
		fmt.Fprintf(&sb, "%s\n\n", result.EnhancedQuery)
	} else {
		sb.WriteString("_No enhancement applied._\n\n")
	}

	sb.WriteString("## Web Search Results\n\n")
	if len(result.WebResults) == 0 {
		sb.WriteString("_No web results._\n\n")
	} else {
		for _, r := range result.WebResults {
			fmt.Fprintf(&sb, "- [%s](%s) (%s)", r.Title, r.URL, r.SourceEngine)
			if r.Snippet != "" {
				fmt.Fprintf(&sb, " — %s", r.Snippet)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Grouped Web Results by Domain\n\n")
	if len(result.GroupedByDomain) == 0 {
		sb.WriteString("_No downloads._\n\n")
	} else {
		domains := make([]string, 0, len(result.GroupedByDomain))
		for d := range result.GroupedByDomain {
			domains = append(domains, d)
		}
		sort.Strings(domains)
		for _, d := range domains {
			fmt.Fprintf(&sb, "### %s\n\n", d)
			for _, p := range result.GroupedByDomain[d] {
				fmt.Fprintf(&sb, "- [%s](%s) — `%s` (%s)\n", p.Title, p.URL, p.FilePath, p.ContentType)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("## Local Retrieval Results\n\n")
	if len(result.LocalResults) == 0 {
		sb.WriteString("_No local corpus matches._\n\n")
	} else {
		for _, r := range result.LocalResults {
			fmt.Fprintf(&sb, "- `%s` (score %.3f): %s\n", r.FilePath, r.Score, r.Snippet)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Final Aggregated Answer\n\n")
	if result.FinalAnswer != "" {
		fmt.Fprintf(&sb, "%s\n", result.FinalAnswer)
	} else {
		sb.WriteString("_No answer was generated._\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
