package chunker

// Chunker splits extracted document text into overlapping fixed-size
// passages. Adjacent chunks share the last `overlap` characters of the
// previous chunk so a fact is never severed across a boundary.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker producing chunks of at most size characters with
// the given overlap. Out-of-range values fall back to usable ones.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split returns the ordered chunk sequence for text. It is deterministic
// for identical inputs and never drops content; filtering of unusably
// short chunks is the caller's concern. Empty input yields no chunks.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
