// Package domain defines the shared data model: the entities every
// component (evidence store, fusion, router, executor, synthesis,
// reflection, memory, transport) passes between each other. Keeping
// these types in one leaf package avoids import cycles between the
// components that all need to speak the same vocabulary.
package domain

import "time"

// TaskKind classifies a Run by the shape of work it requires.
type TaskKind string

const (
	TaskSearch     TaskKind = "search"
	TaskAnalyze    TaskKind = "analyze"
	TaskGeospatial TaskKind = "geospatial"
	TaskCode       TaskKind = "code"
	TaskSummarize  TaskKind = "summarize"
	TaskCompound   TaskKind = "compound"
)

// WorkerID is a stable symbolic worker identifier.
type WorkerID string

const (
	WorkerSearch    WorkerID = "search"
	WorkerAnalyst   WorkerID = "analyst"
	WorkerGeo       WorkerID = "geo"
	WorkerCode      WorkerID = "code"
	WorkerRedactor  WorkerID = "redactor"
	WorkerReflector WorkerID = "reflection"
)

// CorpusID is a symbolic evidence source name.
type CorpusID string

// Framework is the analytical scaffold applied to a synthesis prompt.
type Framework string

const (
	FrameworkPMESII Framework = "PMESII"
	FrameworkDIME   Framework = "DIME"
	FrameworkSWOT   Framework = "SWOT"
	FrameworkNone   Framework = "none"
)

// Query is the inbound request to the orchestration core.
type Query struct {
	Text      string
	SessionID string
	Stream    bool
}

// EvidenceRecord is one retrieved snippet with its similarity and metadata.
// WeightedScore is always derived, never stored independently — it is
// computed by Fusion and carried on the record only after fusion, so code
// outside internal/fusion must treat a zero value here as "not yet fused".
type EvidenceRecord struct {
	CorpusID       CorpusID
	Text           string
	SimilarityScore float64
	WeightedScore  float64
	Metadata       map[string]any
}

// FusedEvidence is Fusion's output: a ranked, deduplicated view across
// corpora.
type FusedEvidence struct {
	Records   []EvidenceRecord
	Ratio     map[CorpusID]int
	Framework Framework
}

// WorkerStatus is the terminal state of one WorkerResult.
type WorkerStatus string

const (
	StatusOK      WorkerStatus = "ok"
	StatusError   WorkerStatus = "error"
	StatusSkipped WorkerStatus = "skipped"
)

// WorkerResult is what a Worker produces for one invocation.
type WorkerResult struct {
	WorkerID         WorkerID
	Status           WorkerStatus
	ErrorKind        string // set when Status == StatusError
	OutputText       string
	StructuredOutput map[string]any
	Artifacts        []string
	DurationMS       int64
	EvidenceUsed     *FusedEvidence
}

// ConsistencyCheck cross-references structural vs event corpora for
// contradictions the synthesis itself may not surface.
type ConsistencyCheck struct {
	OverallStability float64
	Contradictions   []string
	AlignmentSummary string
}

// Reflection is the meta-evaluation of a synthesis.
type Reflection struct {
	Confidence       float64
	Contradictions   []string
	Rerun            []WorkerID
	ConsistencyCheck ConsistencyCheck
	ReviewNotes      string
}

// RunRecord is the persisted, append-only record of one Run.
type RunRecord struct {
	RunID           string
	ParentRunID     string // set when this RunRecord is a revision of a prior run
	Query           Query
	TaskKind        TaskKind
	SelectedWorkers []WorkerID
	Framework       Framework
	WorkerResults   []WorkerResult
	SynthesisText   string
	Reflection      Reflection
	IterationCount  int
	StartedAt       time.Time
	FinishedAt      time.Time
}

// RunEventKind discriminates RunEvent's tagged-sum fields. Exactly one
// payload field is meaningful per Kind; Kind is the discriminant so
// emit/transport never need a type switch on a Go interface.
type RunEventKind string

const (
	EventWorkerStarted   RunEventKind = "worker_started"
	EventWorkerProgress  RunEventKind = "worker_progress"
	EventWorkerCompleted RunEventKind = "worker_completed"
	EventPhase           RunEventKind = "phase"
	EventSynthesisDelta  RunEventKind = "synthesis_delta"
	EventReflection      RunEventKind = "reflection"
	EventDone            RunEventKind = "done"
	EventError           RunEventKind = "error"
)

// RunEvent carries one tagged-sum event.
type RunEvent struct {
	Kind         RunEventKind
	RunID        string
	WorkerID     WorkerID // worker_started, worker_progress, worker_completed
	Text         string   // worker_progress, synthesis_delta
	Summary      string   // worker_completed
	Status       WorkerStatus // worker_completed
	DurationMS   int64        // worker_completed
	PhaseName    string       // phase
	Reflection   *Reflection
	ErrorKind    string
	ErrorMessage string
}
