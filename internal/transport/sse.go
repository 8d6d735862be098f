package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// chunk is the wire shape both /chat streaming and the OpenAI-compatible
// façade emit, modeled on an incremental chat-completion chunk.
type chunk struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model,omitempty"`
	Choices []choice `json:"choices"`
}

type choice struct {
	Index        int    `json:"index"`
	Delta        delta  `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
}

type delta struct {
	Content string `json:"content,omitempty"`
}

// sseSink turns a RunEvent stream into SSE wire frames; handle switches
// on the event kind and writes through shared send helpers.
type sseSink struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	runID   string
	model   string
}

func (s *sseSink) handle(e domain.RunEvent) {
	switch e.Kind {
	case domain.EventWorkerStarted:
		s.sendContent(fmt.Sprintf("\U0001F50D %s: starting\n", e.WorkerID))
	case domain.EventWorkerProgress:
		s.sendContent(e.Text)
	case domain.EventWorkerCompleted:
		s.sendContent(fmt.Sprintf("✓ %s: %s\n", e.WorkerID, e.Summary))
	case domain.EventPhase:
		s.sendContent(fmt.Sprintf("\n**%s**\n\n", e.PhaseName))
	case domain.EventSynthesisDelta:
		s.sendContent(e.Text)
	case domain.EventReflection:
		s.sendContent(reflectionSummary(e.Reflection))
	case domain.EventDone:
		s.sendTerminator("stop")
		s.sendRaw("[DONE]")
	case domain.EventError:
		s.sendContent(fmt.Sprintf("error (%s): %s\n", e.ErrorKind, e.ErrorMessage))
		s.sendTerminator("error")
		s.sendRaw("[DONE]")
	}
}

func (s *sseSink) sendError(kind, message string) {
	s.sendContent(fmt.Sprintf("error (%s): %s\n", kind, message))
	s.sendTerminator("error")
	s.sendRaw("[DONE]")
}

func (s *sseSink) sendContent(text string) {
	if text == "" {
		return
	}
	c := chunk{
		ID:      s.runID,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   s.model,
		Choices: []choice{{Index: 0, Delta: delta{Content: text}}},
	}
	s.writeJSON(c)
}

func (s *sseSink) sendTerminator(finishReason string) {
	c := chunk{
		ID:      s.runID,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   s.model,
		Choices: []choice{{Index: 0, FinishReason: finishReason}},
	}
	s.writeJSON(c)
}

func (s *sseSink) writeJSON(c chunk) {
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	s.sendRaw(string(data))
}

func (s *sseSink) sendRaw(data string) {
	fmt.Fprintf(s.writer, "data: %s\n\n", data)
	s.flusher.Flush()
}

func reflectionSummary(r *domain.Reflection) string {
	if r == nil {
		return ""
	}
	summary := fmt.Sprintf("\nConfidence: %.2f\n", r.Confidence)
	if len(r.Contradictions) > 0 {
		summary += fmt.Sprintf("Contradictions: %d found\n", len(r.Contradictions))
	}
	if r.ReviewNotes != "" {
		summary += r.ReviewNotes + "\n"
	}
	return summary
}
