package transport

import (
	"bufio"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

func newTestSink() (*sseSink, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	sink := &sseSink{writer: rec, flusher: rec, runID: "run-1", model: "hawkai"}
	return sink, rec
}

func readFrames(t *testing.T, body string) []chunk {
	t.Helper()
	var chunks []chunk
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			continue
		}
		var c chunk
		require.NoError(t, json.Unmarshal([]byte(payload), &c))
		chunks = append(chunks, c)
	}
	return chunks
}

func TestSSESinkWorkerStartedProducesContentFrame(t *testing.T) {
	sink, rec := newTestSink()
	sink.handle(domain.RunEvent{Kind: domain.EventWorkerStarted, WorkerID: domain.WorkerAnalyst})

	frames := readFrames(t, rec.Body.String())
	require.Len(t, frames, 1)
	assert.Contains(t, frames[0].Choices[0].Delta.Content, "analyst")
	assert.Contains(t, frames[0].Choices[0].Delta.Content, "starting")
}

func TestSSESinkWorkerCompletedIncludesSummary(t *testing.T) {
	sink, rec := newTestSink()
	sink.handle(domain.RunEvent{Kind: domain.EventWorkerCompleted, WorkerID: domain.WorkerGeo, Summary: "3 locations mapped"})

	frames := readFrames(t, rec.Body.String())
	require.Len(t, frames, 1)
	assert.Contains(t, frames[0].Choices[0].Delta.Content, "3 locations mapped")
}

func TestSSESinkPhaseFormatsAsHeading(t *testing.T) {
	sink, rec := newTestSink()
	sink.handle(domain.RunEvent{Kind: domain.EventPhase, PhaseName: "synthesis"})

	frames := readFrames(t, rec.Body.String())
	require.Len(t, frames, 1)
	assert.Equal(t, "\n**synthesis**\n\n", frames[0].Choices[0].Delta.Content)
}

func TestSSESinkSynthesisDeltaPassesTextThrough(t *testing.T) {
	sink, rec := newTestSink()
	sink.handle(domain.RunEvent{Kind: domain.EventSynthesisDelta, Text: "the situation remains"})

	frames := readFrames(t, rec.Body.String())
	require.Len(t, frames, 1)
	assert.Equal(t, "the situation remains", frames[0].Choices[0].Delta.Content)
}

func TestSSESinkDoneEmitsTerminatorThenSentinel(t *testing.T) {
	sink, rec := newTestSink()
	sink.handle(domain.RunEvent{Kind: domain.EventDone})

	body := rec.Body.String()
	assert.Contains(t, body, `"finish_reason":"stop"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]"))
}

func TestSSESinkErrorEmitsContentThenErrorTerminator(t *testing.T) {
	sink, rec := newTestSink()
	sink.handle(domain.RunEvent{Kind: domain.EventError, ErrorKind: "generation_unavailable", ErrorMessage: "model timed out"})

	body := rec.Body.String()
	assert.Contains(t, body, "model timed out")
	assert.Contains(t, body, `"finish_reason":"error"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]"))
}

func TestSSESinkReflectionSummarizesConfidenceAndContradictions(t *testing.T) {
	sink, rec := newTestSink()
	sink.handle(domain.RunEvent{Kind: domain.EventReflection, Reflection: &domain.Reflection{
		Confidence:     0.82,
		Contradictions: []string{"a", "b"},
		ReviewNotes:    "mostly aligned",
	}})

	frames := readFrames(t, rec.Body.String())
	require.Len(t, frames, 1)
	content := frames[0].Choices[0].Delta.Content
	assert.Contains(t, content, "0.82")
	assert.Contains(t, content, "2 found")
	assert.Contains(t, content, "mostly aligned")
}

func TestSSESinkEmptyContentProducesNoFrame(t *testing.T) {
	sink, rec := newTestSink()
	sink.handle(domain.RunEvent{Kind: domain.EventSynthesisDelta, Text: ""})

	assert.Empty(t, rec.Body.String())
}

func TestSendErrorWritesErrorAndDoneSentinel(t *testing.T) {
	sink, rec := newTestSink()
	sink.sendError("generation_unavailable", "boom")

	body := rec.Body.String()
	assert.Contains(t, body, "boom")
	assert.Contains(t, body, `"finish_reason":"error"`)
	assert.Contains(t, body, "data: [DONE]")
}
