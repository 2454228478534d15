package extract

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	collapseNewlines   = regexp.MustCompile(`\n{3,}`)
	collapseWhitespace = regexp.MustCompile(`\s+`)
)

// FromHTML reduces an HTML document to readable text.
//
// Boilerplate subtrees (script, style, noscript, iframe, header, footer,
// nav, aside, form, aria-hidden) are dropped, then text is collected from
// the content-bearing elements of the main/article/[role=main] containers,
// falling back to body. Paragraphs end with a blank line, other elements
// are separated by a single newline, and runs of 3+ newlines collapse to 2.
func FromHTML(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("extract: parse html: %w", err)
	}

	pruneBoilerplate(doc)

	containers := findContainers(doc)
	var parts []string
	for _, c := range containers {
		collectReadable(c, &parts)
	}

	text := strings.Join(parts, "\n")
	text = collapseNewlines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if text == "" {
		// Crude fallback: whatever text the body still has, one line.
		if body := findBody(doc); body != nil {
			text = strings.TrimSpace(collapseWhitespace.ReplaceAllString(collectText(body), " "))
		}
	}
	return text, nil
}

// strippedTags never contribute readable text.
var strippedTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Nav:      true,
	atom.Aside:    true,
	atom.Form:     true,
}

// contentTags are the elements whose text is collected.
var contentTags = map[atom.Atom]bool{
	atom.P:   true,
	atom.H1:  true,
	atom.H2:  true,
	atom.H3:  true,
	atom.H4:  true,
	atom.H5:  true,
	atom.H6:  true,
	atom.Li:  true,
	atom.Td:  true,
	atom.Pre: true,
}

// pruneBoilerplate removes non-content subtrees in place.
func pruneBoilerplate(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode && (strippedTags[c.DataAtom] || getAttr(c, "aria-hidden") == "true") {
			n.RemoveChild(c)
			continue
		}
		pruneBoilerplate(c)
	}
}

// findContainers returns the semantic content containers in document
// order, or the body when the page has none.
func findContainers(doc *html.Node) []*html.Node {
	var containers []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Main || n.DataAtom == atom.Article || getAttr(n, "role") == "main" {
				containers = append(containers, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(containers) > 0 {
		return containers
	}
	if body := findBody(doc); body != nil {
		return []*html.Node{body}
	}
	return []*html.Node{doc}
}

// collectReadable appends the text of each content element under n, in
// document order. Paragraphs carry a trailing blank line so they stay
// visually separated after joining.
func collectReadable(n *html.Node, parts *[]string) {
	if n.Type == html.ElementNode && contentTags[n.DataAtom] {
		text := strings.TrimSpace(collectText(n))
		if text != "" {
			if n.DataAtom == atom.P {
				text += "\n\n"
			}
			*parts = append(*parts, text)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectReadable(c, parts)
	}
}

// collectText concatenates every text node under n.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// findBody returns the <body> element of a parsed document.
func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
