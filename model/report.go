package model

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies the pipeline stage a diagnostic originated from
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageResolve   Stage = "resolve"
	StageTaxonomy  Stage = "taxonomy"
	StageUpsert    Stage = "upsert"
)

// DiagnosticKind classifies an integrity violation or warning
type DiagnosticKind string

const (
	DiagnosticRejectedRecord      DiagnosticKind = "rejected_record"
	DiagnosticDuplicateIdentifier DiagnosticKind = "duplicate_identifier"
	DiagnosticOutOfRange          DiagnosticKind = "out_of_range"
	DiagnosticDanglingReference   DiagnosticKind = "dangling_reference"
	DiagnosticMissingCategory     DiagnosticKind = "missing_category"
	DiagnosticStaleNode           DiagnosticKind = "stale_node"
)

// Diagnostic is one non-fatal finding from an ingestion run
type Diagnostic struct {
	Stage      Stage          `json:"stage"`
	Kind       DiagnosticKind `json:"kind"`
	Identifier string         `json:"identifier"`
	Detail     string         `json:"detail"`
}

// RunStatus is the overall outcome of an ingestion run
type RunStatus string

const (
	RunStatusSucceeded    RunStatus = "succeeded"
	RunStatusWithWarnings RunStatus = "succeeded_with_warnings"
	RunStatusFailed       RunStatus = "failed"
)

// UpsertStats counts created vs. updated rows of one upsert batch
type UpsertStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Total returns the total number of upserted rows
func (s UpsertStats) Total() int {
	return s.Created + s.Updated
}

// Add accumulates other into s
func (s *UpsertStats) Add(other UpsertStats) {
	s.Created += other.Created
	s.Updated += other.Updated
}

// Report is the structured end-of-run document of one ingestion run.
// It lists per-kind upsert counts, identifiers present in the store but
// absent from the latest snapshot, and all diagnostics collected across
// every stage.
type Report struct {
	RunID       uuid.UUID                `json:"run_id"`
	StartedAt   time.Time                `json:"started_at"`
	FinishedAt  time.Time                `json:"finished_at"`
	Status      RunStatus                `json:"status"`
	FailedStage string                   `json:"failed_stage,omitempty"`
	NodeCounts  map[NodeKind]UpsertStats `json:"node_counts"`
	EdgeCounts  map[EdgeKind]UpsertStats `json:"edge_counts"`
	Stale       map[NodeKind][]string    `json:"stale,omitempty"`
	Diagnostics []Diagnostic             `json:"diagnostics"`
}

// NewReport creates an empty report with a fresh run ID
func NewReport() *Report {
	return &Report{
		RunID:      uuid.New(),
		StartedAt:  time.Now(),
		NodeCounts: map[NodeKind]UpsertStats{},
		EdgeCounts: map[EdgeKind]UpsertStats{},
		Stale:      map[NodeKind][]string{},
	}
}

// AddDiagnostics appends diagnostics to the report
func (r *Report) AddDiagnostics(diagnostics ...Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, diagnostics...)
}

// Finish sets the finish time and derives the run status: failed if a stage
// failed, succeeded with warnings if any diagnostics were collected,
// succeeded otherwise.
func (r *Report) Finish() {
	r.FinishedAt = time.Now()
	if r.FailedStage != "" {
		r.Status = RunStatusFailed
		return
	}
	if len(r.Diagnostics) > 0 {
		r.Status = RunStatusWithWarnings
		return
	}
	r.Status = RunStatusSucceeded
}
