package extractor

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var droppedElements = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Iframe: true,
	atom.Nav:    true,
	atom.Header: true,
	atom.Footer: true,
	atom.Img:    true,
}

var droppedMarkers = []string{"advertisement", "sidebar", "menu", "footer"}

var contentClasses = []string{"main-content", "post-content", "article-content", "entry-content", "content"}

// ExtractHTML returns the readable text of an HTML page, preferring the
// largest article-like container over the whole body.
func ExtractHTML(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	prune(doc)

	var best string
	var body *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Body && body == nil {
				body = n
			}
			if isContentContainer(n) {
				if text := textOf(n); len(text) > len(best) {
					best = text
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if strings.TrimSpace(best) != "" {
		return best, nil
	}
	if body != nil {
		return textOf(body), nil
	}
	return textOf(doc), nil
}

func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode || (c.Type == html.ElementNode && isDropped(c)) {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

func isDropped(n *html.Node) bool {
	if droppedElements[n.DataAtom] {
		return true
	}
	id, class := attr(n, "id"), attr(n, "class")
	if id == "comments" || hasClass(class, "comments") {
		return true
	}
	for _, marker := range droppedMarkers {
		if strings.Contains(id, marker) || strings.Contains(class, marker) {
			return true
		}
	}
	return false
}

func isContentContainer(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Article, atom.Main:
		return true
	}
	if attr(n, "role") == "main" {
		return true
	}
	id := attr(n, "id")
	if id == "content" || id == "main-content" {
		return true
	}
	class := attr(n, "class")
	for _, c := range contentClasses {
		if hasClass(class, c) {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}
