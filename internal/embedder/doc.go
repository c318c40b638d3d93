// Package embedder turns recipe text and search queries into vectors.
//
// Providers:
//   - openai: OpenAI embeddings API (text-embedding-3-small, 1536 dims by default)
//   - jina: Jina AI embeddings API
//   - compat: any OpenAI-compatible server, via langchaingo
//   - local: offline feature hashing, deterministic and dependency free
//
// Every provider validates input (empty or whitespace-only text fails with
// ErrEmptyText), serves repeats from an LRU cache keyed by model and text
// hash, and retries remote calls with exponential backoff.
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{Provider: "openai", APIKey: key, CacheSize: 10000})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "colorful egg dish",
//	})
//
// Batches are split into requests of at most BatchSize texts and come back
// in input order.
package embedder
