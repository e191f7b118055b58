// Package llm is the optional secondary identity check. The model
// binding is an external llama.cpp-compatible completion server; when
// it is unconfigured or unreachable the verifier degrades permanently
// to a no-op and the deterministic extractor's verdict stands.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"urlfinder-engine/internal/config"
)

// Request carries what the model needs to judge one candidate page.
type Request struct {
	CompanyName string
	Address     string
	PageText    string
}

// Verdict is a three-valued answer: Indeterminate means "no
// additional evidence", never a retryable error.
type Verdict int

const (
	Indeterminate Verdict = iota
	Match
	NoMatch
)

type Verifier interface {
	Enabled() bool
	Validate(ctx context.Context, req Request) Verdict
}

// Disabled is the no-op verifier selected when the feature is off.
type Disabled struct{}

func (Disabled) Enabled() bool                          { return false }
func (Disabled) Validate(context.Context, Request) Verdict { return Indeterminate }

// New selects the implementation once at construction.
func New(cfg config.Config) Verifier {
	if !cfg.LLM.Enabled || strings.TrimSpace(cfg.LLM.Endpoint) == "" {
		return Disabled{}
	}
	return &Client{
		endpoint:      strings.TrimRight(cfg.LLM.Endpoint, "/"),
		contextWindow: cfg.LLM.ContextWindow,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
	}
}

const (
	maxReplyTokens = 64
	temperature    = 0.1
)

// Client talks to a llama.cpp-style /completion endpoint. The first
// use probes the server; a failed probe disables the client for the
// rest of the process.
type Client struct {
	endpoint      string
	contextWindow int
	httpClient    *http.Client

	mu       sync.Mutex
	probed   bool
	disabled bool
}

func (c *Client) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.disabled
}

// ensureReady performs the lazy first-use probe.
func (c *Client) ensureReady(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.probed {
		return !c.disabled
	}
	c.probed = true

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		c.disabled = true
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[llm] disabled: endpoint unreachable: %v", err)
		c.disabled = true
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[llm] disabled: health status=%s", resp.Status)
		c.disabled = true
		return false
	}
	log.Printf("[llm] verifier ready endpoint=%s", c.endpoint)
	return true
}

func (c *Client) Validate(ctx context.Context, req Request) Verdict {
	if !c.ensureReady(ctx) {
		return Indeterminate
	}

	reply, err := c.complete(ctx, c.buildPrompt(req))
	if err != nil {
		log.Printf("[llm] inference failed: %v", err)
		return Indeterminate
	}
	return parseReply(reply)
}

// buildPrompt bounds the page text to the context window (in runes) so
// the prompt cannot overflow the model.
func (c *Client) buildPrompt(req Request) string {
	text := req.PageText
	if limit := c.contextWindow; limit > 0 {
		if r := []rune(text); len(r) > limit {
			text = string(r[:limit])
		}
	}
	return "以下は企業ウェブサイトのテキストです。" +
		"会社名と住所が一致しているか、またこのページが企業の公式ホームページ" +
		"（ニュース記事・求人・企業データベースではない）かを判定してください。\n" +
		"会社名: " + req.CompanyName + "\n" +
		"住所: " + req.Address + "\n---\n" +
		text + "\n" +
		`回答は JSON で {"match": true/false, "official": true/false} のみを返してください。`
}

type completionRequest struct {
	Prompt      string  `json:"prompt"`
	NPredict    int     `json:"n_predict"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Content string `json:"content"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:      prompt,
		NPredict:    maxReplyTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("completion status %s", resp.Status)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var cr completionResponse
	if err := json.Unmarshal(b, &cr); err != nil {
		return "", err
	}
	return strings.TrimSpace(cr.Content), nil
}

type judgement struct {
	Match    *bool `json:"match"`
	Official *bool `json:"official"`
}

// parseReply prefers the strict JSON shape and falls back to keyword
// scanning. Match only when both judgments are affirmative; NoMatch
// when either is explicitly negative; Indeterminate otherwise.
func parseReply(text string) Verdict {
	if v, ok := parseJSONReply(text); ok {
		return v
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "false"):
		return NoMatch
	case strings.Contains(lower, "true"):
		return Match
	default:
		return Indeterminate
	}
}

func parseJSONReply(text string) (Verdict, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Indeterminate, false
	}

	var j judgement
	if err := json.Unmarshal([]byte(text[start:end+1]), &j); err != nil {
		return Indeterminate, false
	}
	if j.Match == nil && j.Official == nil {
		return Indeterminate, false
	}

	if (j.Match != nil && !*j.Match) || (j.Official != nil && !*j.Official) {
		return NoMatch, true
	}
	if j.Match != nil && *j.Match && j.Official != nil && *j.Official {
		return Match, true
	}
	return Indeterminate, true
}
