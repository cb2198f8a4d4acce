package port

// Embedder generates vector embeddings for text.
//
// All vectors produced by a single Embedder share the same dimensionality.
// Vectors from embedders with different dimensions must never be mixed in
// the same similarity computation.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
