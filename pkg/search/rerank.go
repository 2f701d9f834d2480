package search

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// goodDomains earn a quality bonus: government, academic, and standards
// bodies publish primary sources.
var goodDomains = []string{".gov", ".edu", "arxiv.org", "acm.org", "ieee.org", "who.int", "un.org"}

// badHints mark low-signal aggregator and tag-farm URLs.
var badHints = []string{"pinterest.", "quora.", "/tag/", "/category/"}

// DefaultPerDomainCap limits how many results one domain may contribute.
const DefaultPerDomainCap = 3

// now is swapped out in tests to pin recency scoring.
var now = time.Now

// ScoreResult rates a hit for keyword match, domain quality, recency, and
// spam penalties.
func ScoreResult(item Result, keyword string) float64 {
	href := item.Href
	title := strings.ToLower(item.Title)
	body := strings.ToLower(item.Body)
	kw := strings.ToLower(keyword)

	host := ""
	if u, err := url.Parse(href); err == nil {
		host = strings.ToLower(u.Hostname())
	}

	var score float64
	if kw != "" && strings.Contains(title, kw) {
		score += 2
	}
	if kw != "" && strings.Contains(body, kw) {
		score += 1
	}
	for _, d := range goodDomains {
		if strings.HasSuffix(host, d) {
			score += 2
			break
		}
	}
	for _, h := range badHints {
		if strings.Contains(href, h) {
			score -= 2
			break
		}
	}
	score += recencyScore(item)
	return score
}

// datePattern pulls an embedded ISO or slash date out of snippet prose so
// dateparse gets a clean token to work with.
var datePattern = regexp.MustCompile(`\b\d{4}[-/]\d{1,2}[-/]\d{1,2}\b|\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4}\b`)

// recencyScore parses a date from the published hint, then the body, then
// the title. Within 30 days earns +2, within 180 days +1.
func recencyScore(item Result) float64 {
	var dt time.Time
	for _, field := range []string{item.Published, item.Body, item.Title} {
		if field == "" {
			continue
		}
		if parsed, err := dateparse.ParseAny(field); err == nil {
			dt = parsed
			break
		}
		if token := datePattern.FindString(field); token != "" {
			if parsed, err := dateparse.ParseAny(token); err == nil {
				dt = parsed
				break
			}
		}
	}
	if dt.IsZero() {
		return 0
	}

	days := now().UTC().Sub(dt).Hours() / 24
	if days < 1 {
		days = 1
	}
	switch {
	case days < 30:
		return 2
	case days < 180:
		return 1
	}
	return 0
}

// Rerank deduplicates by URL (first occurrence wins), sorts by descending
// score (stable), and walks the ranking admitting each result only while its
// domain stays under perDomainCap.
func Rerank(results []Result, keyword string, perDomainCap int) []Result {
	if perDomainCap <= 0 {
		perDomainCap = DefaultPerDomainCap
	}

	seen := make(map[string]bool, len(results))
	deduped := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Href == "" || seen[r.Href] {
			continue
		}
		seen[r.Href] = true
		deduped = append(deduped, r)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return ScoreResult(deduped[i], keyword) > ScoreResult(deduped[j], keyword)
	})

	counts := make(map[string]int)
	out := make([]Result, 0, len(deduped))
	for _, r := range deduped {
		dom := ""
		if u, err := url.Parse(r.Href); err == nil {
			dom = u.Hostname()
		}
		if counts[dom] < perDomainCap {
			counts[dom]++
			out = append(out, r)
		}
	}
	return out
}
