// Package anthropic adapts Anthropic's Claude API to the llm.Model interface.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/arthurspriet/hawk-ai-go/internal/llm"
)

// Model implements llm.Model for Anthropic's Claude API. It extracts the
// system message from the conversation since Anthropic takes the system
// prompt as a separate request field rather than a message with role
// "system".
type Model struct {
	client anthropicsdk.Client
}

// New creates a Model backed by the given API key.
func New(apiKey string) *Model {
	return &Model{client: anthropicsdk.NewClient(option.WithAPIKey(apiKey))}
}

// Generate implements llm.Model.
func (m *Model) Generate(ctx context.Context, modelID string, messages []llm.Message) (llm.ChatOut, error) {
	if ctx.Err() != nil {
		return llm.ChatOut{}, ctx.Err()
	}
	system, rest := extractSystem(messages)
	params := buildParams(modelID, system, rest)

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("anthropic generate: %w", err)
	}
	return llm.ChatOut{Text: textOf(resp)}, nil
}

// GenerateStream implements llm.Model using the SDK's server-sent-event
// streaming endpoint. Each text delta is forwarded as a StreamChunk.
func (m *Model) GenerateStream(ctx context.Context, modelID string, messages []llm.Message) (<-chan llm.StreamChunk, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	system, rest := extractSystem(messages)
	params := buildParams(modelID, system, rest)

	stream := m.client.Messages.NewStreaming(ctx, params)
	out := make(chan llm.StreamChunk, 16)

	go func() {
		defer close(out)
		for stream.Next() {
			event := stream.Current()
			if delta, ok := event.AsAny().(anthropicsdk.RawContentBlockDeltaEvent); ok {
				if text := delta.Delta.Text; text != "" {
					select {
					case out <- llm.StreamChunk{Delta: text}:
					case <-ctx.Done():
						out <- llm.StreamChunk{Err: ctx.Err(), Done: true}
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			out <- llm.StreamChunk{Err: fmt.Errorf("anthropic stream: %w", err), Done: true}
			return
		}
		out <- llm.StreamChunk{Done: true}
	}()

	return out, nil
}

func buildParams(modelID, system string, messages []llm.Message) anthropicsdk.MessageNewParams {
	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(modelID),
		Messages:  convertMessages(messages),
		MaxTokens: 4096,
	}
	if system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}
	return params
}

func extractSystem(messages []llm.Message) (string, []llm.Message) {
	var system string
	var rest []llm.Message
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

func convertMessages(messages []llm.Message) []anthropicsdk.MessageParam {
	out := make([]anthropicsdk.MessageParam, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case llm.RoleAssistant:
			out[i] = anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(msg.Content))
		default:
			out[i] = anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(msg.Content))
		}
	}
	return out
}

func textOf(resp *anthropicsdk.Message) string {
	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			if text != "" {
				text += "\n"
			}
			text += b.Text
		}
	}
	return text
}

// Embedder is not offered by Anthropic's public API; callers needing
// embeddings should pick a different provider for llm.Embedder. This stub
// keeps the package self-contained for call sites that probe for the
// interface via a type switch.
var errNoEmbeddings = errors.New("anthropic: embeddings are not supported")

// Embed always returns errNoEmbeddings.
func (m *Model) Embed(ctx context.Context, modelID string, text string) ([]float32, error) {
	return nil, errNoEmbeddings
}
