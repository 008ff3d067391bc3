package parser

import "strings"

// PlainText handles text/plain and text/markdown documents, splitting on
// blank lines so each paragraph is its own chunk.
type PlainText struct{}

func (p *PlainText) Parse(data []byte) ([]string, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var chunks []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			chunks = append(chunks, block)
		}
	}
	return chunks, nil
}
