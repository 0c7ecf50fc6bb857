// Package workers holds background loops that run beside the engine.
package workers

import (
	"context"
	"time"

	"github.com/starfall-games/starfall/pkg/engine"
	"github.com/starfall-games/starfall/pkg/log"
)

// SaveGameWorker periodically flushes every loaded game back to the
// repository so derived fields survive a restart.
type SaveGameWorker struct {
	engine   *engine.Engine
	interval time.Duration
}

type NewSaveGameWorkerOptions struct {
	Engine   *engine.Engine
	Interval time.Duration
}

func NewSaveGameWorker(opts NewSaveGameWorkerOptions) *SaveGameWorker {
	return &SaveGameWorker{
		engine:   opts.Engine,
		interval: opts.Interval,
	}
}

// Start runs the save loop until the context is cancelled.
func (w *SaveGameWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Save game worker stopped")
			return
		case <-ticker.C:
			w.engine.SaveAll(ctx)
		}
	}
}
