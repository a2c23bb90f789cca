package api

import (
	"time"

	"vizgo/domain/run"
	"vizgo/ports"
)

// Run event types
const (
	EventRunStarted   = "run_started"
	EventRunCompleted = "run_completed"
	EventRunFailed    = "run_failed"
)

// SSEEventBroadcaster adapts the SSEHub to the orchestrator's RunObserver
type SSEEventBroadcaster struct {
	sseHub *SSEHub
}

var _ ports.RunObserver = (*SSEEventBroadcaster)(nil)

// NewSSEEventBroadcaster creates a new SSE event broadcaster
func NewSSEEventBroadcaster(sseHub *SSEHub) *SSEEventBroadcaster {
	return &SSEEventBroadcaster{sseHub: sseHub}
}

// ObserveRun converts the run to an event and broadcasts it
func (seb *SSEEventBroadcaster) ObserveRun(r *run.Run) {
	seb.sseHub.Broadcast(runEvent(r))
}

func runEvent(r *run.Run) RunEvent {
	eventType := EventRunStarted
	switch r.Status {
	case run.StatusCompleted:
		eventType = EventRunCompleted
	case run.StatusFailed:
		eventType = EventRunFailed
	}
	return RunEvent{
		Topic:        r.DatasetName,
		EventType:    eventType,
		RunID:        r.ID.String(),
		Library:      r.Library,
		Question:     r.Question,
		ChartCount:   r.ChartCount,
		SuccessCount: r.SuccessCount,
		Error:        r.Error,
		Timestamp:    time.Now().UTC(),
	}
}
