package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/askdoc/askdoc/internal/chunker"
	"github.com/askdoc/askdoc/internal/docstore"
	"github.com/askdoc/askdoc/internal/embeddings"
	"github.com/askdoc/askdoc/internal/vectordb"
)

// Fetcher downloads a document and reports its declared content type.
type Fetcher interface {
	Get(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// ParserRegistry extracts ordered text chunks for a declared content type.
type ParserRegistry interface {
	Parse(data []byte, contentType string) ([]string, error)
}

// DocumentStore is the slice of the document store the pipeline needs.
type DocumentStore interface {
	GetOrCreate(ctx context.Context, url, namespace string) (*docstore.Document, error)
}

// ProgressFunc reports pipeline progress: stage done out of total stages.
type ProgressFunc func(done, total int, stage string)

// totalStages is the number of pipeline stages reported through ProgressFunc.
const totalStages = 5

// Pipeline converts a remote document into an indexed knowledge base
// exactly once per namespace: download, parse, chunk, embed, upsert.
type Pipeline struct {
	fetcher    Fetcher
	parsers    ParserRegistry
	chunker    *chunker.Chunker
	embedder   embeddings.Embedder
	index      vectordb.Index
	docs       DocumentStore
	minChars   int
	onProgress ProgressFunc
}

// NewPipeline creates a Pipeline. minChars is the usability floor below
// which extracted chunks are discarded before embedding.
func NewPipeline(
	fetcher Fetcher,
	parsers ParserRegistry,
	ch *chunker.Chunker,
	embedder embeddings.Embedder,
	index vectordb.Index,
	docs DocumentStore,
	minChars int,
) *Pipeline {
	if minChars <= 0 {
		minChars = 50
	}
	return &Pipeline{
		fetcher:  fetcher,
		parsers:  parsers,
		chunker:  ch,
		embedder: embedder,
		index:    index,
		docs:     docs,
		minChars: minChars,
	}
}

// SetProgressFunc sets the progress callback.
func (p *Pipeline) SetProgressFunc(fn ProgressFunc) {
	p.onProgress = fn
}

// Ensure guarantees the document's chunks are indexed and its record
// exists, returning the record. An already-populated namespace skips
// extraction and embedding entirely. The existence check is advisory:
// two concurrent first-time ingestions may both embed, which is wasted
// work but harmless since upserts are idempotent by id.
func (p *Pipeline) Ensure(ctx context.Context, url string) (*docstore.Document, error) {
	ns := Namespace(url)

	exists, err := p.index.NamespaceExists(ctx, ns)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: checking namespace: %w", url, err)
	}

	if exists {
		log.Printf("ingest: namespace %q already populated, skipping embedding", ns)
	} else if err := p.ingest(ctx, url, ns); err != nil {
		return nil, fmt.Errorf("ingest %s: %w", url, err)
	}

	doc, err := p.docs.GetOrCreate(ctx, url, ns)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", url, err)
	}
	return doc, nil
}

func (p *Pipeline) ingest(ctx context.Context, url, ns string) error {
	p.progress(1, "download")
	data, contentType, err := p.fetcher.Get(ctx, url)
	if err != nil {
		return err
	}

	p.progress(2, "parse")
	parts, err := p.parsers.Parse(data, contentType)
	if err != nil {
		return err
	}

	p.progress(3, "chunk")
	chunks := p.usableChunks(parts)
	if len(chunks) == 0 {
		log.Printf("ingest: no usable text extracted from %s (%s)", url, contentType)
		return nil
	}

	p.progress(4, "embed")
	vectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedded %d vectors for %d chunks", len(vectors), len(chunks))
	}

	p.progress(5, "index")
	records := make([]vectordb.Record, len(chunks))
	for i, text := range chunks {
		records[i] = vectordb.Record{
			ID:       fmt.Sprintf("%s_%d", ns, i),
			Values:   vectors[i],
			Content:  text,
			Metadata: map[string]string{"text": text},
		}
	}

	n, err := p.index.Upsert(ctx, ns, records)
	if err != nil {
		return fmt.Errorf("indexing vectors: %w", err)
	}
	log.Printf("ingest: indexed %d vectors into namespace %q", n, ns)
	return nil
}

// usableChunks filters unusably short extracted parts, concatenates the
// rest, re-chunks via the Chunker, and filters again. Page numbers and
// stray fragments below the floor never reach the embedder.
func (p *Pipeline) usableChunks(parts []string) []string {
	var kept []string
	for _, part := range parts {
		if len(strings.TrimSpace(part)) > p.minChars {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	var usable []string
	for _, c := range p.chunker.Split(strings.Join(kept, "\n")) {
		if len(strings.TrimSpace(c)) > p.minChars {
			usable = append(usable, c)
		}
	}
	return usable
}

func (p *Pipeline) progress(done int, stage string) {
	if p.onProgress != nil {
		p.onProgress(done, totalStages, stage)
	}
}
