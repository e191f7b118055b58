package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urlfinder-engine/internal/config"
)

func TestFetchParsesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, "<html><body><h1>会社概要</h1></body></html>")
	}))
	defer srv.Close()

	doc := testFetcher().Fetch(context.Background(), srv.URL)
	require.NotNil(t, doc)
	assert.Equal(t, "会社概要", doc.Find("h1").Text())
}

func TestFetchFailuresReturnNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := testFetcher()
	assert.Nil(t, f.Fetch(context.Background(), srv.URL))

	srv.Close()
	assert.Nil(t, f.Fetch(context.Background(), srv.URL))

	assert.Nil(t, f.Fetch(context.Background(), "http://127.0.0.1:1/nope"))
}

func TestFetchAllPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", r.URL.Path)
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/a", srv.URL + "/bad", srv.URL + "/c"}
	docs := testFetcher().FetchAll(context.Background(), urls)

	require.Len(t, docs, 3)
	require.NotNil(t, docs[0])
	assert.Equal(t, "/a", docs[0].Find("p").Text())
	assert.Nil(t, docs[1])
	require.NotNil(t, docs[2])
	assert.Equal(t, "/c", docs[2].Find("p").Text())
}

func TestFetchBoundedBySharedPermits(t *testing.T) {
	var inFlight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Search.HTTPConcurrency = 2
	cfg.Search.HostReqPerSec = 1000
	cfg.Search.HostBurst = 1000
	f := NewFetcher(cfg)

	var urls []string
	for i := 0; i < 8; i++ {
		urls = append(urls, fmt.Sprintf("%s/p%d", srv.URL, i))
	}
	f.FetchAll(context.Background(), urls)

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
