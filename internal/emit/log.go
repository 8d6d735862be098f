package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// LogEmitter writes one line per event to an io.Writer, in either a
// key=value text form or JSONL.
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter. A nil writer defaults to os.Stdout.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

func (l *LogEmitter) Emit(event domain.RunEvent) {
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event domain.RunEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event domain.RunEvent) {
	_, _ = fmt.Fprintf(l.writer, "[%s] run_id=%s", event.Kind, event.RunID)
	if event.WorkerID != "" {
		_, _ = fmt.Fprintf(l.writer, " worker_id=%s", event.WorkerID)
	}
	if event.PhaseName != "" {
		_, _ = fmt.Fprintf(l.writer, " phase=%s", event.PhaseName)
	}
	if event.ErrorKind != "" {
		_, _ = fmt.Fprintf(l.writer, " error_kind=%s error=%q", event.ErrorKind, event.ErrorMessage)
	}
	_, _ = fmt.Fprint(l.writer, "\n")
}

func (l *LogEmitter) EmitBatch(_ context.Context, events []domain.RunEvent) error {
	for _, event := range events {
		l.Emit(event)
	}
	return nil
}

// Flush is a no-op: LogEmitter writes synchronously with no internal
// buffer. Wrap writer in a bufio.Writer and flush that directly if needed.
func (l *LogEmitter) Flush(context.Context) error { return nil }
