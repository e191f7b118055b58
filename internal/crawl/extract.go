package crawl

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/net/html"

	"urlfinder-engine/internal/textnorm"
)

// Result of analyzing one candidate page.
type Result struct {
	Matched     bool
	HomepageURL string // set only when Matched
	Capital     string
	Industry    string
}

// Empirically tuned cutoffs; kept as-is from the production heuristics.
const (
	nameScoreThreshold    = 80 // partial ratio, strict >
	addressScoreThreshold = 75
	minCorporateSignals   = 2 // below this a news-like page cannot match
)

var capitalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)資本金[:：]?\s*([0-9０-９,，.億万円]+)`),
	regexp.MustCompile(`(?i)capital\s*[:：]?\s*([0-9,.]+\s*(?:yen|円|jpy))`),
}

var industryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`業種[:：]?\s*([\w一-龠ぁ-んァ-ンー・／/]+)`),
	regexp.MustCompile(`(?i)business\s*[:：]?\s*(.+)`),
}

var (
	postalCodeRe  = regexp.MustCompile(`〒?\d{3}[-ー−]\d{4}`)
	phoneNumberRe = regexp.MustCompile(`0\d{1,4}[-(（]\d{1,4}[-)）]\d{3,4}`)
)

// Boilerplate navigation labels that real corporate sites carry.
var corporateKeywords = []string{
	"会社概要",
	"会社案内",
	"企業情報",
	"採用情報",
	"お問い合わせ",
	"プライバシーポリシー",
	"サイトマップ",
}

// Media hosts whose articles mention companies without being them.
var newsHosts = []string{
	"nikkei.com",
	"asahi.com",
	"yomiuri.co.jp",
	"mainichi.jp",
	"sankei.com",
	"nhk.or.jp",
	"news.yahoo.co.jp",
	"prtimes.jp",
	"itmedia.co.jp",
	"toyokeizai.net",
}

var articlePathSegments = []string{
	"/news/",
	"/article/",
	"/articles/",
	"/press/",
	"/release/",
}

// AnalyzePage decides whether the fetched page is the company's own
// homepage and extracts capital/industry regardless of the verdict.
func AnalyzePage(doc *goquery.Document, pageURL, companyName, address string) Result {
	text := VisibleText(doc)

	capital := extractField(capitalPatterns, text)
	industry := extractField(industryPatterns, text)

	matched := matchCompanyText(text, companyName, address)
	if matched && looksLikeNews(pageURL) && corporateSignals(text) < minCorporateSignals {
		// an article about the company is not its homepage
		matched = false
	}

	res := Result{Matched: matched, Capital: capital, Industry: industry}
	if matched {
		res.HomepageURL = pageURL
	}
	return res
}

// VisibleText flattens the document's text nodes into one
// space-separated string, skipping script and style subtrees.
func VisibleText(doc *goquery.Document) string {
	var parts []string
	for _, root := range doc.Selection.Nodes {
		collectText(root, &parts)
	}
	return strings.Join(parts, " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return
		}
	}
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func matchCompanyText(pageText, companyName, address string) bool {
	normalizedPage := textnorm.Normalize(pageText)
	if normalizedPage == "" {
		return false
	}

	nameScore := fuzzy.PartialRatio(textnorm.Normalize(companyName), normalizedPage)
	if nameScore <= nameScoreThreshold {
		return false
	}

	addr := textnorm.Normalize(address)
	if addr == "" {
		return true
	}
	return fuzzy.PartialRatio(addr, normalizedPage) > addressScoreThreshold
}

// corporateSignals counts cue categories (postal code, phone number,
// boilerplate keyword), each contributing at most 1.
func corporateSignals(text string) int {
	n := 0
	if postalCodeRe.MatchString(text) {
		n++
	}
	if phoneNumberRe.MatchString(text) {
		n++
	}
	if containsAny(text, corporateKeywords) {
		n++
	}
	return n
}

func looksLikeNews(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	for _, nh := range newsHosts {
		if host == nh || strings.HasSuffix(host, "."+nh) {
			return true
		}
	}
	return containsAny(strings.ToLower(u.Path)+"/", articlePathSegments)
}

func extractField(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
