package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:    8080,
		DataDir: ".askdoc",

		Model:             "gpt-4o",
		EmbeddingModel:    "text-embedding-3-small",
		EmbedBatchSize:    10,
		RequestsPerMinute: 0, // unlimited

		ChunkSize:     1000,
		ChunkOverlap:  100,
		MinChunkChars: 50,

		MaxConcurrency:  10,
		MaxAttempts:     3,
		TopK:            3,
		CacheThreshold:  0.9,
		RelevanceFloor:  0.2,
		MaxContextChars: 3000,

		FetchTimeoutSeconds: 60,
	}
}
