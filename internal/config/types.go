package config

// Config is the top-level askdoc configuration, corresponding to .askdoc.yml.
type Config struct {
	Port      int    `yaml:"port" koanf:"port"`
	DataDir   string `yaml:"data_dir" koanf:"data_dir"`
	AuthToken string `yaml:"auth_token" koanf:"auth_token"`

	Model             string `yaml:"model" koanf:"model"`
	EmbeddingModel    string `yaml:"embedding_model" koanf:"embedding_model"`
	EmbedBatchSize    int    `yaml:"embed_batch_size" koanf:"embed_batch_size"`
	RequestsPerMinute int    `yaml:"requests_per_minute" koanf:"requests_per_minute"`

	ChunkSize     int `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap  int `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	MinChunkChars int `yaml:"min_chunk_chars" koanf:"min_chunk_chars"`

	MaxConcurrency  int     `yaml:"max_concurrency" koanf:"max_concurrency"`
	MaxAttempts     int     `yaml:"max_attempts" koanf:"max_attempts"`
	TopK            int     `yaml:"top_k" koanf:"top_k"`
	CacheThreshold  float64 `yaml:"cache_threshold" koanf:"cache_threshold"`
	RelevanceFloor  float64 `yaml:"relevance_floor" koanf:"relevance_floor"`
	MaxContextChars int     `yaml:"max_context_chars" koanf:"max_context_chars"`

	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" koanf:"fetch_timeout_seconds"`
}
