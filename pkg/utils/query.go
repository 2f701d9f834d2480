package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	formattingMarks = regexp.MustCompile("[*_`]")
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// CleanQuery strips markdown formatting marks and collapses whitespace so
// LLM-enhanced queries are safe to hand to search engines.
func CleanQuery(query string) string {
	query = formattingMarks.ReplaceAllString(query, "")
	query = whitespaceRuns.ReplaceAllString(query, " ")
	return strings.TrimSpace(query)
}

// SplitQuery splits an enhanced query into sub-queries by sentence, packing
// consecutive sentences into chunks of at most maxLen characters. Sentences
// without any alphanumeric content are dropped.
func SplitQuery(query string, maxLen int) []string {
	query = strings.ReplaceAll(query, `"`, "")
	query = strings.ReplaceAll(query, "'", "")

	var subqueries []string
	var current string
	for _, sentence := range strings.Split(query, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" || !hasAlphanumeric(sentence) {
			continue
		}
		if len(current)+len(sentence)+1 <= maxLen {
			if current != "" {
				current += ". " + sentence
			} else {
				current = sentence
			}
		} else {
			if current != "" {
				subqueries = append(subqueries, current)
			}
			current = sentence
		}
	}
	if current != "" {
		subqueries = append(subqueries, current)
	}

	out := subqueries[:0]
	for _, sq := range subqueries {
		if strings.TrimSpace(sq) != "" {
			out = append(out, sq)
		}
	}
	return out
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
