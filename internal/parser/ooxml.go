package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// DOCX extracts text from Word documents, one chunk per paragraph.
type DOCX struct{}

// documentXML mirrors the parts of word/document.xml we care about.
type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

func (p *DOCX) Parse(data []byte) ([]string, error) {
	content, err := readArchiveFile(data, "word/document.xml")
	if err != nil {
		return nil, err
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}

	var chunks []string
	for _, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, run := range para.Runs {
			for _, t := range run.Text {
				b.WriteString(t.Content)
			}
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			chunks = append(chunks, text)
		}
	}
	return chunks, nil
}

// PPTX extracts text from presentations, one chunk per slide.
type PPTX struct{}

func (p *PPTX) Parse(data []byte) ([]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pptx archive: %w", err)
	}

	// Slide files are numbered; sort so chunk order follows slide order.
	var slides []string
	for _, f := range reader.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f.Name)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i]) < slideNumber(slides[j])
	})

	var chunks []string
	for _, name := range slides {
		content, err := readArchiveFile(data, name)
		if err != nil {
			return nil, err
		}
		texts, err := collectTextElements(content)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if slide := strings.TrimSpace(strings.Join(texts, "\n")); slide != "" {
			chunks = append(chunks, slide)
		}
	}
	return chunks, nil
}

func slideNumber(name string) int {
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// XLSX extracts the shared-string table from spreadsheets as a single
// chunk of cell text. Numeric cells carry no prose and are skipped.
type XLSX struct{}

func (p *XLSX) Parse(data []byte) ([]string, error) {
	content, err := readArchiveFile(data, "xl/sharedStrings.xml")
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, nil
	}

	texts, err := collectTextElements(content)
	if err != nil {
		return nil, fmt.Errorf("parse sharedStrings.xml: %w", err)
	}
	if sheet := strings.TrimSpace(strings.Join(texts, "\n")); sheet != "" {
		return []string{sheet}, nil
	}
	return nil, nil
}

// readArchiveFile returns the named file's bytes from a zip archive, or
// nil when the file is absent.
func readArchiveFile(data []byte, name string) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return content, nil
	}
	return nil, nil
}

// collectTextElements walks an OOXML fragment and gathers the character
// data of every <t> element (the text runs in slides and shared strings).
func collectTextElements(content []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var texts []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == "t" && depth > 0 {
				depth--
			}
		case xml.CharData:
			if depth > 0 {
				if s := string(t); s != "" {
					texts = append(texts, s)
				}
			}
		}
	}
	return texts, nil
}
