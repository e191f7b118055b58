package crawl

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"urlfinder-engine/internal/config"
	"urlfinder-engine/internal/textnorm"
)

// Searcher produces ranked candidate homepage URLs for a company.
// Backend failures degrade to an empty list, never an error.
type Searcher interface {
	Search(ctx context.Context, name, address string) []string
}

// NewSearcher builds the configured backend. An unknown engine id is a
// misconfiguration and fails hard.
func NewSearcher(cfg config.Config, fetcher *Fetcher) (Searcher, error) {
	switch cfg.Search.Engine {
	case "duckduckgo":
		return &DuckDuckGo{
			fetcher: fetcher,
			limit:   cfg.Search.ResultLimit,
			baseURL: "https://duckduckgo.com",
		}, nil
	default:
		return nil, fmt.Errorf("unsupported search engine: %q", cfg.Search.Engine)
	}
}

// profileKeyword biases results toward corporate-profile pages.
const profileKeyword = "会社概要"

// URL substrings that mark job boards, directories, map/SNS pages and
// parameterized links; any hit drops the candidate.
var excludeKeywords = []string{
	"indeed.",
	"townwork",
	"hellowork",
	"mynavi",
	"rikunabi",
	"en-japan",
	"doda.jp",
	"baitoru",
	"stanby.com",
	"google.com/maps",
	"goo.ne.jp/map",
	"mapion",
	"navitime",
	"facebook.com",
	"twitter.com",
	"x.com/",
	"instagram.com",
	"line.me",
	"youtube.com",
	"wikipedia.org",
	"?",
}

// Aggregator and news hosts that index companies but are never the
// company's own site.
var hostBlocklist = []string{
	"itp.ne.jp",
	"houjin.jp",
	"houjin-bangou.nta.go.jp",
	"baseconnect.in",
	"alarmbox.jp",
	"jpnumber.com",
	"en-gage.net",
	"prtimes.jp",
	"atpress.ne.jp",
	"nikkei.com",
	"asahi.com",
	"yomiuri.co.jp",
	"mainichi.jp",
	"yahoo.co.jp",
	"rakuten.co.jp",
	"amazon.co.jp",
}

// DuckDuckGo queries the public HTML results page. It shares the
// fetcher's outbound permit with page fetches.
type DuckDuckGo struct {
	fetcher *Fetcher
	limit   int
	baseURL string
}

func (d *DuckDuckGo) Search(ctx context.Context, name, address string) []string {
	q := textnorm.Normalize(name)
	if q == "" {
		return nil
	}
	if addr := textnorm.Normalize(address); addr != "" {
		q += " " + addr
	}
	q += " " + profileKeyword

	params := url.Values{}
	params.Set("q", q)
	params.Set("kl", "jp-jp")
	searchURL := d.baseURL + "/html/?" + params.Encode()

	resp, err := d.fetcher.get(ctx, searchURL)
	if err != nil {
		log.Printf("[search] request failed query=%q err=%v", q, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[search] status=%s query=%q", resp.Status, q)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("[search] parse failed query=%q err=%v", q, err)
		return nil
	}

	var raw []string
	doc.Find("a.result__a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		raw = append(raw, d.resolveResult(href))
		return len(raw) < d.limit
	})

	candidates := rankCandidates(filterCandidates(dedupe(raw)))
	log.Printf("[search] query=%q candidates=%d", q, len(candidates))
	return candidates
}

// resolveResult turns a result anchor into an absolute target URL:
// protocol-relative and site-relative links are resolved against the
// engine, and the uddg= redirect wrapper is unwrapped.
func (d *DuckDuckGo) resolveResult(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	} else if strings.HasPrefix(href, "/") {
		href = d.baseURL + href
	}

	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if dec, err := url.QueryUnescape(uddg); err == nil && dec != "" {
			return dec
		}
	}
	return href
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func filterCandidates(urls []string) []string {
	var out []string
	for _, u := range urls {
		lu := strings.ToLower(u)
		if lu == "" || containsAny(lu, excludeKeywords) {
			continue
		}
		if isBlockedHost(hostOf(u)) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// rankCandidates sorts ascending by (penalty, length): likely official
// small-business domains first, shorter URLs breaking ties.
func rankCandidates(urls []string) []string {
	sort.SliceStable(urls, func(i, j int) bool {
		pi, pj := tldPenalty(hostOf(urls[i])), tldPenalty(hostOf(urls[j]))
		if pi != pj {
			return pi < pj
		}
		return len(urls[i]) < len(urls[j])
	})
	return urls
}

func tldPenalty(host string) int {
	switch {
	case strings.HasSuffix(host, ".co.jp"), strings.HasSuffix(host, ".or.jp"):
		return 0
	case strings.HasSuffix(host, ".jp"):
		return 1
	case strings.HasSuffix(host, ".com"):
		return 2
	default:
		return 5
	}
}

func isBlockedHost(host string) bool {
	for _, b := range hostBlocklist {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Host, "www."))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
