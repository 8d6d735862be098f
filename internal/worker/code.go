package worker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// Code is the `code` worker: triggered by computation cues ("compute",
// "plot", "table of"). It runs a generated script in a subprocess bounded
// by ctx, treating sandboxed code execution as just another worker
// implementation behind the uniform worker contract; the script body
// itself is supplied by ScriptBuilder so the worker stays agnostic to any
// particular generation model's output format.
type Code struct {
	Interpreter   string // e.g. "python3"
	InterpreterArgs []string
	ScriptBuilder func(queryText string, evidence *domain.FusedEvidence) string
	MaxOutputBytes int
}

func (c *Code) ID() domain.WorkerID    { return domain.WorkerCode }
func (c *Code) RequiresEvidence() bool { return false }

func (c *Code) Run(ctx context.Context, queryText string, evidence *domain.FusedEvidence, progress ProgressFunc) domain.WorkerResult {
	progress("preparing computation")

	script := c.script(queryText, evidence)
	interpreter := c.Interpreter
	if interpreter == "" {
		interpreter = "python3"
	}

	args := append([]string{}, c.InterpreterArgs...)
	cmd := exec.CommandContext(ctx, interpreter, args...)
	cmd.Stdin = strings.NewReader(script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	progress("executing sandboxed script")
	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return domain.WorkerResult{Status: domain.StatusError, ErrorKind: "timeout"}
	}
	if ctx.Err() == context.Canceled {
		return domain.WorkerResult{Status: domain.StatusError, ErrorKind: "cancelled"}
	}
	if err != nil {
		return domain.WorkerResult{
			Status:     domain.StatusError,
			ErrorKind:  "execution_failed",
			OutputText: fmt.Sprintf("script failed: %v\nstderr: %s", err, truncate(stderr.String(), c.maxOutput())),
		}
	}

	return domain.WorkerResult{
		Status:     domain.StatusOK,
		OutputText: truncate(stdout.String(), c.maxOutput()),
	}
}

func (c *Code) script(queryText string, evidence *domain.FusedEvidence) string {
	if c.ScriptBuilder != nil {
		return c.ScriptBuilder(queryText, evidence)
	}
	return fmt.Sprintf("print(%q)\n", fmt.Sprintf("no computation defined for: %s", queryText))
}

func (c *Code) maxOutput() int {
	if c.MaxOutputBytes <= 0 {
		return 16 * 1024
	}
	return c.MaxOutputBytes
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
