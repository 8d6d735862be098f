// Package openai adapts OpenAI's chat completion API to the llm.Model and
// llm.Embedder interfaces.
package openai

import (
	"context"
	"fmt"

	"github.com/arthurspriet/hawk-ai-go/internal/llm"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Model implements llm.Model and llm.Embedder for OpenAI.
type Model struct {
	client openaisdk.Client
}

// New creates a Model backed by the given API key.
func New(apiKey string) *Model {
	return &Model{client: openaisdk.NewClient(option.WithAPIKey(apiKey))}
}

// Generate implements llm.Model.
func (m *Model) Generate(ctx context.Context, modelID string, messages []llm.Message) (llm.ChatOut, error) {
	if ctx.Err() != nil {
		return llm.ChatOut{}, ctx.Err()
	}
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(modelID),
		Messages: convertMessages(messages),
	}
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.ChatOut{}, nil
	}
	return llm.ChatOut{Text: resp.Choices[0].Message.Content}, nil
}

// GenerateStream implements llm.Model using OpenAI's chunked SSE streaming.
func (m *Model) GenerateStream(ctx context.Context, modelID string, messages []llm.Message) (<-chan llm.StreamChunk, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(modelID),
		Messages: convertMessages(messages),
	}
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	out := make(chan llm.StreamChunk, 16)

	go func() {
		defer close(out)
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case out <- llm.StreamChunk{Delta: delta}:
			case <-ctx.Done():
				out <- llm.StreamChunk{Err: ctx.Err(), Done: true}
				return
			}
		}
		if err := stream.Err(); err != nil {
			out <- llm.StreamChunk{Err: fmt.Errorf("openai stream: %w", err), Done: true}
			return
		}
		out <- llm.StreamChunk{Done: true}
	}()

	return out, nil
}

// Embed implements llm.Embedder via OpenAI's embeddings endpoint.
func (m *Model) Embed(ctx context.Context, modelID string, text string) ([]float32, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	resp, err := m.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(modelID),
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfString: openaisdk.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embed: empty response")
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

func convertMessages(messages []llm.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			out[i] = openaisdk.SystemMessage(msg.Content)
		case llm.RoleAssistant:
			out[i] = openaisdk.AssistantMessage(msg.Content)
		default:
			out[i] = openaisdk.UserMessage(msg.Content)
		}
	}
	return out
}
