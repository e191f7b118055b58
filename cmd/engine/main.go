package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"urlfinder-engine/internal/config"
	"urlfinder-engine/internal/crawl"
	"urlfinder-engine/internal/events"
	"urlfinder-engine/internal/httpapi"
	"urlfinder-engine/internal/jobs"
	"urlfinder-engine/internal/llm"
	"urlfinder-engine/internal/store"
)

func main() {
	dataDir := os.Getenv("URLFINDER_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	if res := config.Validate(cfg); !res.OK() {
		log.Fatalf("config invalid: %v", res.Errors)
	} else {
		for _, warning := range res.Warnings {
			log.Printf("level=warn msg=%q", warning)
		}
	}

	st, err := store.Open(filepath.Join(dataDir, "companies.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()
	manager := jobs.NewManager()

	fetcher := crawl.NewFetcher(cfg)
	searcher, err := crawl.NewSearcher(cfg, fetcher)
	if err != nil {
		log.Fatal(err)
	}
	verifier := llm.New(cfg)

	pipeline := crawl.NewPipeline(st, searcher, fetcher, verifier, hub, cfg.Crawl.RecheckNotFoundDays)

	mux := httpapi.NewMux(httpapi.Deps{
		Store:   st,
		Hub:     hub,
		Manager: manager,
		Cfg:     cfg,
		RunJob: func(ctx context.Context, state *jobs.State) {
			log.Printf("[job %s] started", state.ID())
			pipeline.Run(ctx, state)
			log.Printf("[job %s] finished", state.ID())
		},
	})

	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.Recover,
		httpapi.AccessLog,
		httpapi.Cors,
	)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (data=%s)", addr, dataDir)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal(srv.Serve(ln))
}
