package crawl

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"urlfinder-engine/internal/config"
)

// hostLimiter rate-limits per hostname so a run over many candidates
// does not hammer one site.
type hostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

func newHostLimiter(reqPerSec float64, burst int) *hostLimiter {
	return &hostLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Limit(reqPerSec),
		b: burst,
	}
}

func (hl *hostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, hl.b)
	hl.m[host] = lim
	return lim
}

func (hl *hostLimiter) waitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return hl.limiterFor("_").Wait(ctx)
	}
	return hl.limiterFor(u.Host).Wait(ctx)
}

// Fetcher performs outbound HTTP for the crawl. The semaphore bounds
// total in-flight requests process-wide and is shared with the search
// backend; it is held only for the duration of one request.
type Fetcher struct {
	client    *http.Client
	userAgent string
	sem       *semaphore.Weighted
	hosts     *hostLimiter
}

func NewFetcher(cfg config.Config) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.HTTPTimeout()},
		userAgent: cfg.Search.UserAgent,
		sem:       semaphore.NewWeighted(int64(cfg.Search.HTTPConcurrency)),
		hosts:     newHostLimiter(cfg.Search.HostReqPerSec, cfg.Search.HostBurst),
	}
}

// get issues one GET under the shared concurrency permit. Callers own
// the response body.
func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := f.hosts.waitURL(ctx, rawURL); err != nil {
		return nil, err
	}
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.sem.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	return f.client.Do(req)
}

// Fetch retrieves and parses one page. Any transport error, timeout or
// non-2xx status is logged and yields nil; it never propagates.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *goquery.Document {
	resp, err := f.get(ctx, rawURL)
	if err != nil {
		log.Printf("[fetch] failed url=%s err=%v", rawURL, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[fetch] status=%s url=%s", resp.Status, rawURL)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("[fetch] parse failed url=%s err=%v", rawURL, err)
		return nil
	}
	return doc
}

// FetchAll fans out Fetch over urls, bounded by the shared permit
// count, and returns results in input order (nil for failures).
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []*goquery.Document {
	docs := make([]*goquery.Document, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			docs[i] = f.Fetch(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return docs
}
