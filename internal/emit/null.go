package emit

import (
	"context"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// NullEmitter discards every event, for a Run invoked headless with no
// one listening for progress.
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

func (n *NullEmitter) Emit(domain.RunEvent) {}

func (n *NullEmitter) EmitBatch(context.Context, []domain.RunEvent) error { return nil }

func (n *NullEmitter) Flush(context.Context) error { return nil }
