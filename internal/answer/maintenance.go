package answer

import (
	"context"
	"log"

	"github.com/askdoc/askdoc/internal/ingest"
	"github.com/askdoc/askdoc/internal/vectordb"
)

// ClearAllCaches clears the durable answer store and deletes the
// semantic-cache namespace for every known document. Per-document
// failures are logged and skipped, so the sweep is safe to re-run.
// Document records themselves are kept.
func ClearAllCaches(ctx context.Context, docs DocumentStore, index vectordb.Index) error {
	known, err := docs.List(ctx)
	if err != nil {
		return err
	}

	for _, d := range known {
		if err := docs.ClearPairs(ctx, d.URL); err != nil {
			log.Printf("cache: clearing stored answers for %s: %v", d.URL, err)
		}
		if err := index.DeleteNamespace(ctx, ingest.CacheNamespace(d.Namespace)); err != nil {
			log.Printf("cache: deleting cache namespace for %s: %v", d.URL, err)
		}
	}
	log.Printf("cache: cleared caches for %d document(s)", len(known))
	return nil
}

// ClearAllCaches clears both cache tiers for every document known to
// this service's store.
func (s *Service) ClearAllCaches(ctx context.Context) error {
	return ClearAllCaches(ctx, s.docs, s.index)
}
