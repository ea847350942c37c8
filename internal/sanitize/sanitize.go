// Package sanitize reduces user-submitted text to plain text before it is stored.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// markup matches a closed tag, a comment or a character reference. A bare
// '<' in prose such as "x<y" is not markup.
var markup = regexp.MustCompile(`</?[A-Za-z][^<>]*>|<!--|&(#[0-9]+|#[xX][0-9A-Fa-f]+|[A-Za-z][A-Za-z0-9]*);`)

// Tags whose content is never user-visible text
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"iframe": true, "template": true, "head": true,
}

// PlainText strips markup from s and normalizes whitespace. Line breaks
// between block elements survive; runs of spaces inside a line collapse to one.
// Input without markup is only trimmed.
func PlainText(s string) string {
	if !markup.MatchString(s) {
		return strings.TrimSpace(s)
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}

		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			sb.WriteString("\n")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}

		// Add newlines after block elements
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "pre":
				sb.WriteString("\n")
			}
		}
	}
	extract(doc)

	return normalize(sb.String())
}

func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
