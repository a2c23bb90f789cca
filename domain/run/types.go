package run

import (
	"time"

	"vizgo/domain/chart"
	"vizgo/domain/core"
)

// Status of a visualization run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run records one visualize request: which dataset and goal it served, the
// library it targeted and how many of its candidates produced a chart.
type Run struct {
	ID             core.RunID `json:"id" db:"id"`
	DatasetName    string     `json:"dataset_name" db:"dataset_name"`
	Question       string     `json:"question" db:"question"`
	Visualization  string     `json:"visualization" db:"visualization"`
	Library        string     `json:"library" db:"library"`
	Debug          bool       `json:"debug" db:"debug"`
	Status         Status     `json:"status" db:"status"`
	CandidateCount int        `json:"candidate_count" db:"candidate_count"`
	ChartCount     int        `json:"chart_count" db:"chart_count"`
	SuccessCount   int        `json:"success_count" db:"success_count"`
	Fingerprint    core.Hash  `json:"fingerprint" db:"fingerprint"`
	Error          string     `json:"error,omitempty" db:"error"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// New starts a run record.
func New(datasetName, question, visualization string, lib chart.Library, debug bool) *Run {
	return &Run{
		ID:            core.NewRunID(),
		DatasetName:   datasetName,
		Question:      question,
		Visualization: visualization,
		Library:       lib.String(),
		Debug:         debug,
		Status:        StatusRunning,
		StartedAt:     time.Now().UTC(),
	}
}

// Complete closes the run over the candidates it executed and the charts they produced.
func (r *Run) Complete(candidates []chart.Candidate, charts []chart.Chart) {
	now := time.Now().UTC()
	r.CompletedAt = &now
	r.Status = StatusCompleted
	r.CandidateCount = len(candidates)
	r.ChartCount = len(charts)
	r.SuccessCount = 0
	for _, c := range charts {
		if c.Status {
			r.SuccessCount++
		}
	}
	r.Fingerprint = Fingerprint(r.DatasetName, r.Question, r.Library, candidates)
}

// Fail closes the run with an error.
func (r *Run) Fail(err error) {
	now := time.Now().UTC()
	r.CompletedAt = &now
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration is zero while the run is still open.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
