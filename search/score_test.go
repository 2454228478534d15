package search

import (
	"reflect"
	"testing"
)

func TestScoreHit(t *testing.T) {
	tests := []struct {
		name string
		hit  Hit
		want int
	}{
		{
			name: "preferred domain",
			hit:  Hit{Link: "https://en.wikipedia.org/wiki/Go", Title: "Go", Snippet: "a language"},
			want: 5,
		},
		{
			name: "less preferred domain",
			hit:  Hit{Link: "https://www.amazon.com/dp/123", Title: "Buy Go book", Snippet: "cheap"},
			want: -5,
		},
		{
			name: "keyword occurrences are additive",
			hit:  Hit{Link: "https://example.com/x", Title: "study of a study", Snippet: "research"},
			want: 3, // "study" twice + "research" once
		},
		{
			name: "preferred plus keywords",
			hit:  Hit{Link: "https://arxiv.org/abs/1", Title: "paper", Snippet: "analysis"},
			want: 7,
		},
		{
			name: "unparseable url overrides everything",
			hit:  Hit{Link: "://bad url", Title: "research study paper", Snippet: "journal"},
			want: -10,
		},
		{
			name: "keyword in url counts",
			hit:  Hit{Link: "https://example.com/research", Title: "", Snippet: ""},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreHit(tt.hit); got != tt.want {
				t.Errorf("scoreHit(%+v) = %d, want %d", tt.hit, got, tt.want)
			}
		})
	}
}

func TestScoreHitsSortsStably(t *testing.T) {
	hits := []Hit{
		{Link: "https://example.com/a", Title: "plain"},
		{Link: "https://en.wikipedia.org/wiki/B", Title: "wiki"},
		{Link: "https://example.com/b", Title: "also plain"},
	}
	got := ScoreHits(hits)
	if got[0].Link != "https://en.wikipedia.org/wiki/B" {
		t.Fatalf("expected the preferred domain first, got %q", got[0].Link)
	}
	// Ties keep input order.
	if got[1].Link != "https://example.com/a" || got[2].Link != "https://example.com/b" {
		t.Errorf("tied hits reordered: %+v", got[1:])
	}
	// Input slice is untouched.
	if hits[0].Score != 0 {
		t.Error("ScoreHits mutated its input")
	}
}

func TestScoreHitsDeterministic(t *testing.T) {
	hits := []Hit{
		{Link: "https://a.gov/report", Title: "report"},
		{Link: "https://b.shop/deal", Title: "deal"},
	}
	first := ScoreHits(hits)
	second := ScoreHits(hits)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ScoreHits not deterministic: %+v vs %+v", first, second)
	}
}
