package ports

import "vizgo/domain/run"

// RunObserver is told when a visualization run starts and when it finishes.
// Implementations must not block.
type RunObserver interface {
	ObserveRun(r *run.Run)
}
