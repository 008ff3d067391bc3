package vectordb

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemIndex implements Index using chromem-go, mapping each namespace
// to its own collection. Embeddings are always supplied by the caller, so
// no embedding function is attached to the collections.
type ChromemIndex struct {
	db *chromem.DB
}

// NewChromemIndex creates a new in-memory ChromemIndex.
func NewChromemIndex() *ChromemIndex {
	return &ChromemIndex{db: chromem.NewDB()}
}

func (x *ChromemIndex) Upsert(ctx context.Context, namespace string, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	col, err := x.db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("create namespace %q: %w", namespace, err)
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Content,
			Embedding: r.Values,
			Metadata:  r.Metadata,
		}
	}

	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return 0, fmt.Errorf("upsert into %q: %w", namespace, err)
	}
	return len(records), nil
}

func (x *ChromemIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Result, error) {
	col := x.db.GetCollection(namespace, nil)
	if col == nil {
		return nil, nil
	}

	if topK <= 0 {
		topK = 1
	}
	// chromem-go requires nResults <= collection size.
	if count := col.Count(); count == 0 {
		return nil, nil
	} else if topK > count {
		topK = count
	}

	results, err := col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", namespace, err)
	}

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			ID:         r.ID,
			Content:    r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

func (x *ChromemIndex) NamespaceExists(_ context.Context, namespace string) (bool, error) {
	for name, col := range x.db.ListCollections() {
		if name == namespace {
			return col.Count() > 0, nil
		}
	}
	return false, nil
}

func (x *ChromemIndex) DeleteNamespace(_ context.Context, namespace string) error {
	return x.db.DeleteCollection(namespace)
}

// Persist saves the index to the given file path.
func (x *ChromemIndex) Persist(path string) error {
	return x.db.ExportToFile(path, true, "")
}

// Load restores the index from the given file path.
func (x *ChromemIndex) Load(path string) error {
	if err := x.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import index from %s: %w", path, err)
	}
	return nil
}
