package vectordb

import "context"

// Record is a single embedded vector with its payload. For content
// vectors the payload carries the chunk text; for cache vectors it
// carries the cached question and answer.
type Record struct {
	ID       string
	Values   []float32
	Content  string
	Metadata map[string]string
}

// Result pairs a stored record with its similarity to the query vector.
type Result struct {
	ID         string
	Content    string
	Metadata   map[string]string
	Similarity float32
}

// Index is a namespace-partitioned vector index. It is policy-free:
// similarity thresholds are applied by callers.
type Index interface {
	// Upsert inserts or overwrites records by id and returns the count written.
	Upsert(ctx context.Context, namespace string, records []Record) (int, error)

	// Query returns up to topK results ordered by descending similarity.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Result, error)

	// NamespaceExists reports whether the namespace holds at least one vector.
	NamespaceExists(ctx context.Context, namespace string) (bool, error)

	// DeleteNamespace removes the namespace. Absence is not an error.
	DeleteNamespace(ctx context.Context, namespace string) error
}
