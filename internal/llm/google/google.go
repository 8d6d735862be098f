// Package google adapts Google's Gemini API to the llm.Model and
// llm.Embedder interfaces.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/arthurspriet/hawk-ai-go/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Model implements llm.Model and llm.Embedder for Gemini. It surfaces a
// *SafetyFilterError for blocked content so callers can type-switch on
// it instead of string-matching the underlying API error.
type Model struct {
	client *genai.Client
}

// New creates a Model backed by the given API key. Callers should Close()
// the underlying client during shutdown.
func New(ctx context.Context, apiKey string) (*Model, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("google: new client: %w", err)
	}
	return &Model{client: client}, nil
}

// Close releases the underlying client.
func (m *Model) Close() error {
	return m.client.Close()
}

// SafetyFilterError reports that Gemini blocked a response on safety grounds.
type SafetyFilterError struct {
	Category string
}

func (e *SafetyFilterError) Error() string {
	return fmt.Sprintf("google: content blocked: %s", e.Category)
}

// Generate implements llm.Model.
func (m *Model) Generate(ctx context.Context, modelID string, messages []llm.Message) (llm.ChatOut, error) {
	if ctx.Err() != nil {
		return llm.ChatOut{}, ctx.Err()
	}
	gm := m.client.GenerativeModel(modelID)
	cs := gm.StartChat()
	cs.History = historyOf(messages[:len(messages)-1])

	last := messages[len(messages)-1]
	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("google generate: %w", err)
	}
	return llm.ChatOut{Text: textOf(resp)}, nil
}

// GenerateStream implements llm.Model using Gemini's streaming iterator.
func (m *Model) GenerateStream(ctx context.Context, modelID string, messages []llm.Message) (<-chan llm.StreamChunk, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	gm := m.client.GenerativeModel(modelID)
	cs := gm.StartChat()
	cs.History = historyOf(messages[:len(messages)-1])
	last := messages[len(messages)-1]

	iter := cs.SendMessageStream(ctx, genai.Text(last.Content))
	out := make(chan llm.StreamChunk, 16)

	go func() {
		defer close(out)
		for {
			resp, err := iter.Next()
			if errors.Is(err, genai.ErrIteratorDone) || err == nil && resp == nil {
				break
			}
			if err != nil {
				if errors.Is(err, genai.ErrIteratorDone) {
					break
				}
				out <- llm.StreamChunk{Err: fmt.Errorf("google stream: %w", err), Done: true}
				return
			}
			if text := textOf(resp); text != "" {
				select {
				case out <- llm.StreamChunk{Delta: text}:
				case <-ctx.Done():
					out <- llm.StreamChunk{Err: ctx.Err(), Done: true}
					return
				}
			}
		}
		out <- llm.StreamChunk{Done: true}
	}()

	return out, nil
}

// Embed implements llm.Embedder via Gemini's embedding model.
func (m *Model) Embed(ctx context.Context, modelID string, text string) ([]float32, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	em := m.client.EmbeddingModel(modelID)
	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("google embed: %w", err)
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("google embed: empty response")
	}
	return resp.Embedding.Values, nil
}

func historyOf(messages []llm.Message) []*genai.Content {
	hist := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == llm.RoleAssistant {
			role = "model"
		}
		hist = append(hist, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return hist
}

func textOf(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var text string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text += string(t)
			}
		}
	}
	return text
}
