// CLAUDE:SUMMARY Heuristic source scoring — domain preference lists plus relevance keyword counting.
package search

import (
	"net/url"
	"sort"
	"strings"
)

// Hit is one web search result. The JSON tags are shared with the client
// and with persisted results.
type Hit struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Score   int    `json:"score"`
}

var preferredDomains = []string{
	".edu", ".gov", "wikipedia.org", "scholar.google.com",
	"bbc.", "reuters.", "nytimes.", "arxiv.org",
}

var lessPreferredDomains = []string{
	"amazon.", "walmart.", "bestbuy.", "ebay.", "target.",
	"shopping.", ".shop", ".store",
}

var relevantKeywords = []string{
	"research", "study", "abstract", "thesis", "paper", "journal",
	"news", "report", "article", "analysis", "findings",
	"university", "institute",
}

// ScoreHits assigns a heuristic score to each hit and returns a new slice
// sorted by score descending. Equal scores keep their input order, so the
// function is deterministic for a given input.
func ScoreHits(hits []Hit) []Hit {
	scored := make([]Hit, len(hits))
	copy(scored, hits)
	for i := range scored {
		scored[i].Score = scoreHit(scored[i])
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func scoreHit(h Hit) int {
	u, err := url.Parse(h.Link)
	if err != nil || u.Hostname() == "" {
		// Unparseable links are poor candidates no matter what the
		// title and snippet say.
		return -10
	}
	domain := strings.ToLower(u.Hostname())

	score := 0
	for _, pd := range preferredDomains {
		if strings.Contains(domain, pd) {
			score += 5
			break
		}
	}
	for _, lpd := range lessPreferredDomains {
		if strings.Contains(domain, lpd) {
			score -= 5
			break
		}
	}

	text := strings.ToLower(h.Title) + " " + strings.ToLower(h.Snippet) + " " + strings.ToLower(h.Link)
	for _, kw := range relevantKeywords {
		score += strings.Count(text, kw)
	}
	return score
}
