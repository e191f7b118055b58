package httpapi

import (
	"context"

	"urlfinder-engine/internal/config"
	"urlfinder-engine/internal/events"
	"urlfinder-engine/internal/jobs"
	"urlfinder-engine/internal/store"
)

type Deps struct {
	Store   *store.Store
	Hub     *events.Hub
	Manager *jobs.Manager
	Cfg     config.Config

	// RunJob executes one crawl job to completion (injected for
	// testability). The create handler fires it on its own goroutine.
	RunJob func(ctx context.Context, state *jobs.State)
}
