package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"urlfinder-engine/internal/config"
	"urlfinder-engine/internal/events"
	"urlfinder-engine/internal/jobs"
)

type JobsHandler struct {
	Manager *jobs.Manager
	Hub     *events.Hub
	Cfg     config.Config
	RunJob  func(ctx context.Context, state *jobs.State)
}

type createJobRequest struct {
	Region       string `json:"region"`
	Limit        int    `json:"limit"`
	ChunkSize    int    `json:"chunkSize"`
	Concurrency  int    `json:"concurrency"`
	SkipExisting *bool  `json:"skipExisting"`
}

// Create registers a new crawl job and fires it without blocking the
// request.
func (h JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}
	}

	cfg := jobs.Config{
		Region:       strings.TrimSpace(req.Region),
		Limit:        max(0, req.Limit),
		ChunkSize:    req.ChunkSize,
		Concurrency:  req.Concurrency,
		SkipExisting: h.Cfg.Crawl.SkipExisting,
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = h.Cfg.Crawl.ChunkSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = h.Cfg.Crawl.Concurrency
	}
	if req.SkipExisting != nil {
		cfg.SkipExisting = *req.SkipExisting
	}

	state := jobs.NewState(uuid.NewString(), cfg)
	if err := h.Manager.Create(state); err != nil {
		WriteError(w, r, http.StatusConflict, "duplicate_job", err.Error())
		return
	}

	go h.RunJob(context.Background(), state)

	h.Hub.Publish(events.MakeEvent("job_created", state.Snapshot()))
	WriteJSON(w, http.StatusCreated, state.Snapshot())
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Manager.Snapshots())
}

// GetByPath serves /jobs/{id}.
func (h JobsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid job id")
		return
	}

	state, ok := h.Manager.Get(id)
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such job")
		return
	}
	writeJSON(w, state.Snapshot())
}
