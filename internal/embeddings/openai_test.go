package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

// embeddingsMock serves the embeddings endpoint, returning one vector per
// input whose single component is the global position of that input.
type embeddingsMock struct {
	requests int
	served   int
}

func (m *embeddingsMock) handler(w http.ResponseWriter, r *http.Request) {
	m.requests++

	var req struct {
		Input []string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	type datum struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	}
	data := make([]datum, len(req.Input))
	for i := range req.Input {
		data[i] = datum{Object: "embedding", Index: i, Embedding: []float32{float32(m.served)}}
		m.served++
	}

	json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   data,
		"model":  "text-embedding-3-small",
	})
}

func newMockEmbedder(t *testing.T, mock *embeddingsMock, batchSize int) *OpenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(mock.handler))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     ModelTextEmbedding3Small,
		batchSize: batchSize,
	}
}

func TestEmbedSubBatches(t *testing.T) {
	mock := &embeddingsMock{}
	e := newMockEmbedder(t, mock, 2)

	texts := []string{"a", "b", "c", "d", "e"}
	vecs, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vecs), len(texts))
	}
	// 5 inputs at batch size 2 means 3 requests.
	if mock.requests != 3 {
		t.Errorf("made %d requests, want 3", mock.requests)
	}
	// Vectors come back in original input order across sub-batches.
	for i, v := range vecs {
		if len(v) != 1 || v[0] != float32(i) {
			t.Errorf("vector %d = %v, want [%d]", i, v, i)
		}
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	mock := &embeddingsMock{}
	e := newMockEmbedder(t, mock, 10)

	vecs, err := e.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if vecs != nil {
		t.Errorf("expected nil for empty input, got %v", vecs)
	}
	if mock.requests != 0 {
		t.Errorf("made %d requests, want 0", mock.requests)
	}
}

func TestNewOpenAIEmbedderDefaults(t *testing.T) {
	e := NewOpenAIEmbedder("key", ModelTextEmbedding3Small, 0)
	if e.batchSize != defaultBatchSize {
		t.Errorf("batchSize = %d, want default %d", e.batchSize, defaultBatchSize)
	}
	if e.Dimensions() != 1536 {
		t.Errorf("Dimensions() = %d, want 1536", e.Dimensions())
	}
	if e.Name() != "text-embedding-3-small" {
		t.Errorf("Name() = %q", e.Name())
	}

	large := NewOpenAIEmbedder("key", ModelTextEmbedding3Large, 5)
	if large.Dimensions() != 3072 {
		t.Errorf("Dimensions() = %d, want 3072", large.Dimensions())
	}
}
