// Package llm provides the generation/embedding interfaces the orchestration
// core is built against. Concrete providers (anthropic, openai, google) and
// the mock used in tests all implement these two interfaces; nothing above
// this package imports a provider SDK directly.
package llm

import "context"

// Message is a single turn in a conversation, following the common
// system/user/assistant shape used by all three wired providers.
type Message struct {
	Role    string
	Content string
}

// Standard conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatOut is a complete (non-streaming) generation result.
type ChatOut struct {
	Text string
}

// StreamChunk is one incremental fragment of a streaming generation. The
// synthesis stage forwards Delta as a synthesis_delta RunEvent and
// appends it to an accumulator; Err is set (with Done=true) if the
// stream failed partway through, Done alone marks a clean end of stream.
type StreamChunk struct {
	Delta string
	Done  bool
	Err   error
}

// Model is the generation interface workers and the synthesis stage call
// through. A single Model value may back several WorkerIds, each with its
// own configured ModelID.
type Model interface {
	// Generate performs a single, non-streaming completion.
	Generate(ctx context.Context, modelID string, messages []Message) (ChatOut, error)

	// GenerateStream performs a streaming completion. The returned channel
	// is closed after a chunk with Done=true (or Err set) is sent.
	// Implementations must respect ctx cancellation and stop producing
	// chunks promptly when ctx is done.
	GenerateStream(ctx context.Context, modelID string, messages []Message) (<-chan StreamChunk, error)
}

// Embedder turns text into a fixed-dimension vector for the Evidence Store.
type Embedder interface {
	Embed(ctx context.Context, modelID string, text string) ([]float32, error)
}
