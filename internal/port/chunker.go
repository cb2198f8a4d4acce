package port

// Chunker splits raw document text into bounded-size retrievable units.
// Implementations must be deterministic.
type Chunker interface {
	Chunk(text string) []string
}
