package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFromHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "prefers article over body noise",
			in: `<html><body>
				<div><p>outside</p></div>
				<article><h1>Title</h1><p>First para.</p><p>Second para.</p></article>
			</body></html>`,
			want: "Title\nFirst para.\n\nSecond para.",
		},
		{
			name: "role main counts as a container",
			in:   `<html><body><div role="main"><p>inside</p></div><p>outside</p></body></html>`,
			want: "inside",
		},
		{
			name: "strips boilerplate elements",
			in: `<html><body>
				<nav><li>menu</li></nav>
				<header><h1>site</h1></header>
				<p>content</p>
				<script>var x = 1;</script>
				<footer><p>bye</p></footer>
			</body></html>`,
			want: "content",
		},
		{
			name: "strips aria-hidden subtrees",
			in:   `<html><body><p>visible</p><div aria-hidden="true"><p>hidden</p></div></body></html>`,
			want: "visible",
		},
		{
			name: "paragraphs get a blank line, other elements a single newline",
			in:   `<html><body><p>one</p><h2>head</h2><li>item</li></body></html>`,
			want: "one\n\nhead\nitem",
		},
		{
			name: "collapses 3+ newlines to 2",
			in:   `<html><body><p>a</p><p>b</p></body></html>`,
			want: "a\n\nb",
		},
		{
			name: "falls back to collapsed body text",
			in:   `<html><body><span>just   a\nspan</span></body></html>`,
			want: "just a\\nspan",
		},
		{
			name: "empty page",
			in:   `<html><body></body></html>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromHTML(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("FromHTML: %v", err)
			}
			if got != tt.want {
				t.Errorf("FromHTML = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("User-Agent = %q, want a browser UA", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><article><p>hello world</p></article></body></html>`))
	}))
	defer srv.Close()

	e := New(Config{})
	text, ok := e.Extract(context.Background(), srv.URL)
	if !ok {
		t.Fatal("Extract failed")
	}
	if text != "hello world" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractFailureModes(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer notFound.Close()

	pdf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer pdf.Close()

	e := New(Config{})
	for _, url := range []string{notFound.URL, pdf.URL, "http://127.0.0.1:1/unreachable"} {
		if text, ok := e.Extract(context.Background(), url); ok || text != "" {
			t.Errorf("Extract(%q) = (%q, %v), want (\"\", false)", url, text, ok)
		}
	}
}
