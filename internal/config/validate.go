package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Validate checks the loaded config before any component is built.
// An unknown search engine is an error here as well as at the
// constructor: it is a misconfiguration, not a runtime condition.
func Validate(cfg Config) Validation {
	var res Validation

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		res.addErr("app.port out of range: %d", cfg.App.Port)
	}
	if strings.TrimSpace(cfg.Search.Engine) == "" {
		res.addErr("search.engine is empty")
	}
	if cfg.Search.ResultLimit <= 0 {
		res.addErr("search.result_limit must be positive, got %d", cfg.Search.ResultLimit)
	}
	if cfg.Search.TimeoutSeconds <= 0 {
		res.addErr("search.timeout_seconds must be positive, got %d", cfg.Search.TimeoutSeconds)
	}
	if cfg.Search.HTTPConcurrency <= 0 {
		res.addErr("search.http_concurrency must be positive, got %d", cfg.Search.HTTPConcurrency)
	}
	if cfg.Crawl.ChunkSize <= 0 {
		res.addErr("crawl.chunk_size must be positive, got %d", cfg.Crawl.ChunkSize)
	}
	if cfg.Crawl.Concurrency <= 0 {
		res.addErr("crawl.concurrency must be positive, got %d", cfg.Crawl.Concurrency)
	}

	if cfg.Search.ResultLimit > 30 {
		res.addWarn("search.result_limit %d is high; the engine only parses one results page", cfg.Search.ResultLimit)
	}
	if cfg.LLM.Enabled && strings.TrimSpace(cfg.LLM.Endpoint) == "" {
		res.addWarn("llm.enabled is set but llm.endpoint is empty; verifier will stay disabled")
	}

	return res
}
