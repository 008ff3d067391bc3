package parser

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// HTML extracts visible text from HTML documents, one chunk per block of
// text. Script and style contents are skipped.
type HTML struct{}

func (p *HTML) Parse(data []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var chunks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				chunks = append(chunks, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return chunks, nil
}
