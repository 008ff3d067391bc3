// Package engine exposes the ingestion-and-answer surface the transport
// layer builds on: process a document with a batch of questions, and
// clear every cache.
package engine

import (
	"context"

	"github.com/askdoc/askdoc/internal/answer"
	"github.com/askdoc/askdoc/internal/ingest"
)

// Engine ties the ingestion pipeline to the answer orchestrator.
type Engine struct {
	pipeline     *ingest.Pipeline
	orchestrator *answer.Service
}

// New creates an Engine from its two halves.
func New(pipeline *ingest.Pipeline, orchestrator *answer.Service) *Engine {
	return &Engine{pipeline: pipeline, orchestrator: orchestrator}
}

// Process guarantees the document is ingested, then resolves every
// question. The returned map is keyed by the questions as asked.
// Ingestion failure fails the whole request; per-question failures
// degrade to the fallback answer inside the map.
func (e *Engine) Process(ctx context.Context, url string, questions []string) (map[string]string, error) {
	doc, err := e.pipeline.Ensure(ctx, url)
	if err != nil {
		return nil, err
	}
	return e.orchestrator.Answer(ctx, doc, questions)
}

// ClearAllCaches clears the durable and semantic caches for every known
// document.
func (e *Engine) ClearAllCaches(ctx context.Context) error {
	return e.orchestrator.ClearAllCaches(ctx)
}
