package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urlfinder-engine/internal/config"
)

func testFetcher() *Fetcher {
	cfg := config.Default()
	cfg.Search.TimeoutSeconds = 2
	cfg.Search.HostReqPerSec = 1000
	cfg.Search.HostBurst = 1000
	return NewFetcher(cfg)
}

func resultsPage(hrefs ...string) string {
	page := "<html><body>"
	for _, h := range hrefs {
		page += fmt.Sprintf(`<a rel="nofollow" class="result__a" href="%s">result</a>`, h)
	}
	return page + "</body></html>"
}

func newTestDDG(t *testing.T, handler http.HandlerFunc) *DuckDuckGo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &DuckDuckGo{fetcher: testFetcher(), limit: 10, baseURL: srv.URL}
}

func TestSearchParsesAndRanks(t *testing.T) {
	d := newTestDDG(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/html/", r.URL.Path)
		q := r.URL.Query().Get("q")
		assert.Contains(t, q, "会社概要")
		fmt.Fprint(w, resultsPage(
			"https://example.com/company/",
			"https://yamada-shouji.co.jp/",
			"https://something.example.org/long/path/here",
			"https://foo.jp/about",
		))
	})

	got := d.Search(context.Background(), "山田商事", "東京都千代田区")
	// .co.jp first, then .jp, then .com, then everything else
	assert.Equal(t, []string{
		"https://yamada-shouji.co.jp/",
		"https://foo.jp/about",
		"https://example.com/company/",
		"https://something.example.org/long/path/here",
	}, got)
}

func TestSearchDeduplicates(t *testing.T) {
	d := newTestDDG(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resultsPage(
			"https://a.co.jp/",
			"https://a.co.jp/",
			"https://b.co.jp/",
			"https://a.co.jp/",
		))
	})
	got := d.Search(context.Background(), "テスト", "")
	assert.Equal(t, []string{"https://a.co.jp/", "https://b.co.jp/"}, got)
}

func TestSearchDropsExcludedURLs(t *testing.T) {
	d := newTestDDG(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resultsPage(
			"https://www.indeed.com/cmp/acme",
			"https://townwork.net/detail/123",
			"https://www.facebook.com/acme",
			"https://acme.co.jp/list?page=2",
			"https://itp.ne.jp/info/123456",
			"https://prtimes.jp/main/html/rd/p/1.html",
			"https://acme.co.jp/",
		))
	})
	got := d.Search(context.Background(), "acme", "")
	assert.Equal(t, []string{"https://acme.co.jp/"}, got)
}

func TestSearchUnwrapsRedirects(t *testing.T) {
	d := newTestDDG(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resultsPage(
			"//duckduckgo.com/l/?uddg=https%3A%2F%2Facme.co.jp%2Fcompany",
			"/l/?uddg=https%3A%2F%2Fbeta.co.jp%2F",
		))
	})
	got := d.Search(context.Background(), "acme", "")
	assert.Equal(t, []string{"https://beta.co.jp/", "https://acme.co.jp/company"}, got)
}

func TestSearchHonorsResultLimit(t *testing.T) {
	d := newTestDDG(t, func(w http.ResponseWriter, r *http.Request) {
		var hrefs []string
		for i := 0; i < 20; i++ {
			hrefs = append(hrefs, fmt.Sprintf("https://site%02d.co.jp/", i))
		}
		fmt.Fprint(w, resultsPage(hrefs...))
	})
	d.limit = 3
	got := d.Search(context.Background(), "acme", "")
	assert.Len(t, got, 3)
}

func TestSearchBackendFailureYieldsEmpty(t *testing.T) {
	d := newTestDDG(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Empty(t, d.Search(context.Background(), "acme", ""))

	// unreachable backend
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	dead := &DuckDuckGo{fetcher: testFetcher(), limit: 10, baseURL: srv.URL}
	assert.Empty(t, dead.Search(context.Background(), "acme", ""))
}

func TestRankingIsTotalOrder(t *testing.T) {
	assert.Equal(t, 0, tldPenalty("acme.co.jp"))
	assert.Equal(t, 0, tldPenalty("acme.or.jp"))
	assert.Equal(t, 1, tldPenalty("acme.jp"))
	assert.Equal(t, 2, tldPenalty("acme.com"))
	assert.Equal(t, 5, tldPenalty("acme.example.org"))

	// shorter URL wins within the same penalty class
	got := rankCandidates([]string{
		"https://acme.co.jp/very/long/path",
		"https://acme.co.jp/",
	})
	assert.Equal(t, "https://acme.co.jp/", got[0])
}

func TestNewSearcherRejectsUnknownEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Search.Engine = "altavista"
	_, err := NewSearcher(cfg, testFetcher())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "altavista")
}
