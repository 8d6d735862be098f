package llm

import (
	"context"
	"sync"
)

// MockModel is a test double for Model. It is a direct adaptation of the
// teacher's graph/model.MockChatModel: configurable responses, call
// history, error injection, thread-safe.
type MockModel struct {
	Responses []ChatOut
	Stream    []string // chunks returned by GenerateStream, in order
	Err       error

	Calls []MockCall

	mu        sync.Mutex
	callIndex int
}

// MockCall records one invocation for assertions in tests.
type MockCall struct {
	ModelID  string
	Messages []Message
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, modelID string, messages []Message) (ChatOut, error) {
	if ctx.Err() != nil {
		return ChatOut{}, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{ModelID: modelID, Messages: messages})

	if m.Err != nil {
		return ChatOut{}, m.Err
	}
	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}
	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// GenerateStream implements Model by replaying m.Stream as chunks, or, if
// Stream is empty, splitting the next Generate response on spaces.
func (m *MockModel) GenerateStream(ctx context.Context, modelID string, messages []Message) (<-chan StreamChunk, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out, err := m.Generate(ctx, modelID, messages)
	if err != nil {
		return nil, err
	}

	chunks := m.Stream
	if len(chunks) == 0 {
		chunks = splitWords(out.Text)
	}

	ch := make(chan StreamChunk, len(chunks)+1)
	go func() {
		defer close(ch)
		for _, c := range chunks {
			select {
			case <-ctx.Done():
				ch <- StreamChunk{Err: ctx.Err(), Done: true}
				return
			case ch <- StreamChunk{Delta: c}:
			}
		}
		ch <- StreamChunk{Done: true}
	}()
	return ch, nil
}

func splitWords(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i, r := range s {
		if r == ' ' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// Reset clears call history, matching MockChatModel.Reset.
func (m *MockModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}

// MockEmbedder is a deterministic test double for Embedder: it hashes the
// input text into a fixed-size vector so identical text always produces
// the identical vector (Evidence Store determinism, spec P1-adjacent).
type MockEmbedder struct {
	Dim int
	Err error
}

// Embed implements Embedder.
func (m *MockEmbedder) Embed(ctx context.Context, modelID string, text string) ([]float32, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	dim := m.Dim
	if dim <= 0 {
		dim = 16
	}
	return hashEmbed(text, dim), nil
}

// hashEmbed derives a deterministic pseudo-embedding from text using a
// simple rolling hash per dimension. Not semantically meaningful — it
// exists only so tests can exercise similarity ranking deterministically
// without a real embedding model.
func hashEmbed(text string, dim int) []float32 {
	v := make([]float32, dim)
	var h uint32 = 2166136261
	for i, r := range text {
		h ^= uint32(r)
		h *= 16777619
		v[i%dim] += float32(h%1000) / 1000.0
	}
	return v
}
