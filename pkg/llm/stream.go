package llm

// StreamChunk is a single text fragment emitted while a response streams.
type StreamChunk struct {
	// Model that generated the chunk
	Model string `json:"model"`

	// Text is the fragment, in emission order.
	Text string `json:"text"`
}

// StreamHandler receives chunks as they arrive. Returning an error stops the
// stream.
type StreamHandler func(StreamChunk) error
