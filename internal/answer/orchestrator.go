// Package answer resolves question batches against an ingested document,
// preferring cheaper sources: the durable per-document answer store, then
// the semantic similarity cache, then retrieval plus generation.
package answer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/askdoc/askdoc/internal/docstore"
	"github.com/askdoc/askdoc/internal/embeddings"
	"github.com/askdoc/askdoc/internal/ingest"
	"github.com/askdoc/askdoc/internal/llm"
	"github.com/askdoc/askdoc/internal/vectordb"
)

// FallbackAnswer replaces a question's answer when every attempt fails.
// A single bad question never fails the batch.
const FallbackAnswer = "Sorry, I couldn't find relevant information."

const systemPrompt = "Answer using only the provided context. Be brief and factual. " +
	"If the answer is not in the context, say so plainly. " +
	"Avoid elaboration, opinions, and markdown. Use plain text, " +
	"a single paragraph of at most 75 words."

// errNoContext marks a retrieval where no chunk cleared the relevance
// floor. It is retried like a remote failure.
var errNoContext = errors.New("no chunks above the relevance floor")

// DocumentStore is the slice of the document store the orchestrator needs.
type DocumentStore interface {
	FindAnswers(ctx context.Context, url string, questions []string) (map[string]string, error)
	AppendQuestions(ctx context.Context, url string, questions []string) error
	AppendPairs(ctx context.Context, url string, pairs []docstore.QAPair) error
	List(ctx context.Context) ([]docstore.Document, error)
	ClearPairs(ctx context.Context, url string) error
}

// Options tune the orchestrator. Zero values fall back to defaults.
type Options struct {
	Model           string
	MaxConcurrency  int           // in-flight questions (default 10)
	MaxAttempts     int           // attempts per question (default 3)
	TopK            int           // retrieved chunks per question (default 3)
	CacheThreshold  float32       // semantic cache hit floor (default 0.9)
	RelevanceFloor  float32       // minimum chunk similarity (default 0.2)
	MaxContextChars int           // prompt context budget (default 3000)
	RetryBackoff    time.Duration // pause between attempts (default 1s)
}

func (o *Options) applyDefaults() {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 10
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.TopK <= 0 {
		o.TopK = 3
	}
	if o.CacheThreshold == 0 {
		o.CacheThreshold = 0.9
	}
	if o.RelevanceFloor == 0 {
		o.RelevanceFloor = 0.2
	}
	if o.MaxContextChars <= 0 {
		o.MaxContextChars = 3000
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
}

// Service answers question batches for ingested documents.
type Service struct {
	embedder embeddings.Embedder
	provider llm.Provider
	index    vectordb.Index
	docs     DocumentStore
	opts     Options
}

// NewService creates a Service with explicitly injected collaborators.
func NewService(embedder embeddings.Embedder, provider llm.Provider, index vectordb.Index, docs DocumentStore, opts Options) *Service {
	opts.applyDefaults()
	return &Service{
		embedder: embedder,
		provider: provider,
		index:    index,
		docs:     docs,
		opts:     opts,
	}
}

// Answer resolves each question to an answer. The returned map is keyed
// by the questions as asked; duplicate questions collapse to one entry.
// Durable-cache hits resolve synchronously, the rest fan out to a
// bounded worker pool. Per-question failures degrade to FallbackAnswer.
func (s *Service) Answer(ctx context.Context, doc *docstore.Document, questions []string) (map[string]string, error) {
	if doc == nil {
		return nil, errors.New("answer: nil document")
	}
	if len(questions) == 0 {
		return map[string]string{}, nil
	}

	if err := s.docs.AppendQuestions(ctx, doc.URL, questions); err != nil {
		log.Printf("answer: recording questions for %s: %v", doc.URL, err)
	}

	answers := make(map[string]string, len(questions))

	durable, err := s.docs.FindAnswers(ctx, doc.URL, questions)
	if err != nil {
		log.Printf("answer: durable cache lookup for %s: %v", doc.URL, err)
		durable = map[string]string{}
	}

	var pending []string
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if seen[q] {
			continue
		}
		seen[q] = true
		if ans, ok := durable[q]; ok {
			answers[q] = ans
		} else {
			pending = append(pending, q)
		}
	}

	sem := make(chan struct{}, s.opts.MaxConcurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, q := range pending {
		wg.Add(1)
		go func(question string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ans := s.resolve(ctx, doc, question)
			mu.Lock()
			answers[question] = ans
			mu.Unlock()
		}(q)
	}
	wg.Wait()

	return answers, nil
}

// resolve runs the bounded retry loop for one question. The question
// embedding is computed once and reused across attempts; only the
// failing remote call is retried.
func (s *Service) resolve(ctx context.Context, doc *docstore.Document, question string) string {
	cacheNS := ingest.CacheNamespace(doc.Namespace)

	var vector []float32
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		ans, err := s.attempt(ctx, doc, cacheNS, question, &vector)
		if err == nil {
			return ans
		}
		log.Printf("answer: %q attempt %d/%d: %v", clip(question, 60), attempt, s.opts.MaxAttempts, err)

		if attempt == s.opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return FallbackAnswer
		case <-time.After(s.opts.RetryBackoff):
		}
	}
	return FallbackAnswer
}

func (s *Service) attempt(ctx context.Context, doc *docstore.Document, cacheNS, question string, vector *[]float32) (string, error) {
	if *vector == nil {
		vecs, err := s.embedder.Embed(ctx, []string{question})
		if err != nil {
			return "", fmt.Errorf("embed question: %w", err)
		}
		if len(vecs) != 1 {
			return "", fmt.Errorf("embed question: got %d vectors", len(vecs))
		}
		*vector = vecs[0]
	}

	// Semantic cache: a near-duplicate of a previously answered question
	// short-circuits generation. Hits are promoted to the durable store.
	hits, err := s.index.Query(ctx, cacheNS, *vector, 1)
	if err != nil {
		return "", fmt.Errorf("query semantic cache: %w", err)
	}
	if len(hits) > 0 && hits[0].Similarity > s.opts.CacheThreshold {
		if cached := hits[0].Metadata["answer"]; cached != "" {
			if err := s.docs.AppendPairs(ctx, doc.URL, []docstore.QAPair{{Question: question, Answer: cached}}); err != nil {
				log.Printf("answer: promoting cache hit for %s: %v", doc.URL, err)
			}
			return cached, nil
		}
	}

	// Retrieval: top-k content chunks above the relevance floor,
	// truncated to the context budget.
	results, err := s.index.Query(ctx, doc.Namespace, *vector, s.opts.TopK)
	if err != nil {
		return "", fmt.Errorf("query content namespace: %w", err)
	}
	var parts []string
	for _, r := range results {
		if r.Similarity <= s.opts.RelevanceFloor {
			continue
		}
		text := r.Metadata["text"]
		if text == "" {
			text = r.Content
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", errNoContext
	}
	contextText := strings.Join(parts, "\n")
	if len(contextText) > s.opts.MaxContextChars {
		contextText = contextText[:s.opts.MaxContextChars]
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model: s.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	ans := strings.TrimSpace(resp.Content)
	if ans == "" {
		return "", errors.New("generate answer: empty completion")
	}

	s.writeCaches(ctx, doc, cacheNS, question, *vector, ans)
	return ans, nil
}

// writeCaches records a freshly generated answer in both tiers. Cache
// writes are best effort: a failure costs a future regeneration, not
// the current answer.
func (s *Service) writeCaches(ctx context.Context, doc *docstore.Document, cacheNS, question string, vector []float32, ans string) {
	record := vectordb.Record{
		ID:      cacheKey(cacheNS, question),
		Values:  vector,
		Content: question,
		Metadata: map[string]string{
			"question": question,
			"answer":   ans,
		},
	}
	if _, err := s.index.Upsert(ctx, cacheNS, []vectordb.Record{record}); err != nil {
		log.Printf("answer: caching answer vector for %s: %v", doc.URL, err)
	}

	if err := s.docs.AppendPairs(ctx, doc.URL, []docstore.QAPair{{Question: question, Answer: ans}}); err != nil {
		log.Printf("answer: storing qa pair for %s: %v", doc.URL, err)
	}
}

// cacheKey derives a stable cache-vector id from the namespace and the
// normalized question, so re-caching an identical question overwrites.
func cacheKey(cacheNS, question string) string {
	sum := sha256.Sum256([]byte(cacheNS + "|" + docstore.Normalize(question)))
	return hex.EncodeToString(sum[:16])
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
