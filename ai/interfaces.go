package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TextGenerator produces natural-language text from a system instruction and
// a user prompt. Implementations must be thread-safe for concurrent use.
type TextGenerator interface {
	// GenerateText submits the system and user messages to the underlying
	// model and returns the generated text.
	// Returns an error if generation fails or the response is malformed.
	GenerateText(ctx context.Context, system, user string) (string, error)

	// Name identifies the generator for logging and chain diagnostics.
	Name() string
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and TextGenerator
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service.
	// The returned TextGenerator is safe for concurrent use.
	Generator() TextGenerator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
