// Package transport implements the Streaming Transport: a Gin HTTP
// surface translating RunEvents into chat-compatible incremental chunks
// over http.Flusher-driven SSE frames.
package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/emit"
	"github.com/arthurspriet/hawk-ai-go/internal/memory"
	"github.com/arthurspriet/hawk-ai-go/internal/metrics"
	"github.com/arthurspriet/hawk-ai-go/internal/run"
)

// Server holds the collaborators the HTTP surface dispatches to.
type Server struct {
	Core     *run.Core
	Buffered *emit.BufferedEmitter
	Memory   memory.Store
	Metrics  *metrics.Metrics
	Corpora  []domain.CorpusID
	Workers  []domain.WorkerID
}

// NewEngine builds a configured Gin engine with every route registered.
func NewEngine(s *Server, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	}))

	engine.GET("/health", s.handleHealth)
	engine.GET("/status", s.handleStatus)
	engine.GET("/v1/models", s.handleModels)
	engine.GET("/history", s.handleHistory)
	engine.POST("/chat", s.handleChat)
	engine.POST("/v1/chat/completions", s.handleChatCompletions)

	return engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleStatus(c *gin.Context) {
	body := gin.H{
		"corpora": s.Corpora,
		"workers": s.Workers,
	}
	if s.Metrics != nil {
		body["queue_depth"] = gaugeValue(s.Metrics.QueueDepth)
		body["inflight_workers"] = gaugeValue(s.Metrics.InflightWorkers)
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleModels(c *gin.Context) {
	models := make([]gin.H, 0, len(s.Workers))
	for _, id := range s.Workers {
		models = append(models, gin.H{"id": string(id), "object": "model"})
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": models})
}

func (s *Server) handleHistory(c *gin.Context) {
	n := 20
	if raw := c.Query("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	records, err := s.Memory.Recent(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// chatRequest is POST /chat's body.
type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	Stream    bool   `json:"stream"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	query := domain.Query{Text: req.Query, SessionID: req.SessionID, Stream: req.Stream}

	if !req.Stream {
		s.runBuffered(c, query)
		return
	}
	s.runStreaming(c, query)
}

func (s *Server) runBuffered(c *gin.Context, query domain.Query) {
	start := time.Now()
	outcome, err := s.Core.Execute(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"response":         outcome.SynthesisText,
		"status":           "ok",
		"duration_seconds": time.Since(start).Seconds(),
		"workers_used":     outcome.WorkersUsed,
		"session_id":       query.SessionID,
		"timestamp":        time.Now().Format(time.RFC3339),
	})
}

// runStreaming drives the event -> SSE-chunk mapping table: frames are
// flushed in the order produced, content events yield at most one frame
// each, and the terminating done or error event yields a finish_reason
// chunk followed by the `[DONE]` sentinel.
func (s *Server) runStreaming(c *gin.Context, query domain.Query) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	runID := uuid.NewString()
	sink := &sseSink{writer: c.Writer, flusher: flusher, runID: runID, model: "hawkai"}
	liveEmitter := emit.NewFanout(s.Buffered, emit.EmitterFunc(sink.handle))

	core := *s.Core
	core.Emitter = liveEmitter

	ctx := c.Request.Context()
	// Execute emits its own terminating event (EventDone or EventError)
	// through sink before returning, so a non-nil error here has already
	// reached the client as a finish_reason + [DONE] frame — sending a
	// second terminator would double-terminate the stream.
	_, _ = core.Execute(ctx, query)
}

// handleChatCompletions is the OpenAI-compatible façade: the last user
// message becomes the query; chunks conform to an OpenAI-shaped
// chat-completion-chunk schema.
func (s *Server) handleChatCompletions(c *gin.Context) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Model  string `json:"model"`
		Stream bool   `json:"stream"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var queryText string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			queryText = req.Messages[i].Content
			break
		}
	}
	if queryText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no user message found"})
		return
	}

	query := domain.Query{Text: queryText, Stream: req.Stream}

	if !req.Stream {
		outcome, err := s.Core.Execute(c.Request.Context(), query)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":      uuid.NewString(),
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   req.Model,
			"choices": []gin.H{{
				"index":         0,
				"message":       gin.H{"role": "assistant", "content": outcome.SynthesisText},
				"finish_reason": "stop",
			}},
		})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	runID := uuid.NewString()
	sink := &sseSink{writer: c.Writer, flusher: flusher, runID: runID, model: req.Model}
	liveEmitter := emit.NewFanout(s.Buffered, emit.EmitterFunc(sink.handle))

	core := *s.Core
	core.Emitter = liveEmitter

	// Execute emits its own terminating event through sink before
	// returning; don't send a second terminator here.
	_, _ = core.Execute(c.Request.Context(), query)
}

// gaugeValue reads a live Prometheus gauge's current value for inlining
// into the status response, the same dto.Metric round-trip
// promhttp's handler uses internally to render a collector.
func gaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
