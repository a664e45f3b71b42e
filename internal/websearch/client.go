package websearch

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks github.com/Jitarth1102/rag-study-assistant/internal/websearch Searcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"` // provider that produced the hit
}

// Searcher is the web-search capability.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Client performs web searches via SerpAPI when an API key is configured,
// falling back to scraping a search results page otherwise. Results are
// filtered by the configured allow/block domain lists.
type Client struct {
	provider       string
	apiKey         string
	maxResults     int
	allowedDomains []string
	blockedDomains []string
	httpClient     *http.Client
}

// ClientConfig carries the web-search settings.
type ClientConfig struct {
	// Provider is "serpapi" (the default, used when APIKey is set) or
	// "scrape" to force the scraping path even with a key configured.
	Provider       string
	APIKey         string
	MaxResults     int
	TimeoutSeconds int
	AllowedDomains []string
	BlockedDomains []string
}

// NewClient creates a web search client.
func NewClient(cfg ClientConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Client{
		provider:       strings.ToLower(cfg.Provider),
		apiKey:         cfg.APIKey,
		maxResults:     maxResults,
		allowedDomains: cfg.AllowedDomains,
		blockedDomains: cfg.BlockedDomains,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// Search runs one query and returns domain-filtered results.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if maxResults <= 0 || maxResults > c.maxResults {
		maxResults = c.maxResults
	}

	var results []Result
	var err error
	if c.apiKey != "" && c.provider != "scrape" {
		results, err = c.searchWithSerpAPI(ctx, query, maxResults)
	} else {
		results, err = c.searchWithScrape(ctx, query, maxResults)
	}
	if err != nil {
		return nil, err
	}

	filtered := c.filterDomains(results)
	logger.InfoContext(ctx, "web search completed", "query", query, "results", len(results), "after_domain_filter", len(filtered))
	return filtered, nil
}

func (c *Client) searchWithSerpAPI(ctx context.Context, query string, maxResults int) ([]Result, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("api_key", c.apiKey)
	params.Add("num", fmt.Sprintf("%d", maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://serpapi.com/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var searchResp struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]Result, 0, len(searchResp.OrganicResults))
	for _, r := range searchResp.OrganicResults {
		if r.Link == "" {
			continue
		}
		results = append(results, Result{Title: r.Title, URL: r.Link, Snippet: r.Snippet, Source: "serpapi"})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}

func (c *Client) searchWithScrape(ctx context.Context, query string, maxResults int) ([]Result, error) {
	searchURL := fmt.Sprintf("https://html.duckduckgo.com/html/?q=%s", url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	results := make([]Result, 0, maxResults)
	doc.Find("div.result").Each(func(i int, s *goquery.Selection) {
		if len(results) >= maxResults {
			return
		}
		title := strings.TrimSpace(s.Find("a.result__a").Text())
		link, _ := s.Find("a.result__a").Attr("href")
		snippet := strings.TrimSpace(s.Find("a.result__snippet").Text())

		link = unwrapRedirect(link)
		if title == "" || link == "" {
			return
		}
		results = append(results, Result{Title: title, URL: link, Snippet: snippet, Source: "scrape"})
	})
	return results, nil
}

// unwrapRedirect extracts the target URL from a result-page redirect link.
func unwrapRedirect(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "" {
		return "https:" + link
	}
	return link
}

// filterDomains applies the allow list (when non-empty) then the block list.
// Matching is by host suffix so subdomains of an allowed domain pass.
func (c *Client) filterDomains(results []Result) []Result {
	if len(c.allowedDomains) == 0 && len(c.blockedDomains) == 0 {
		return results
	}

	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		host := hostOf(r.URL)
		if host == "" {
			continue
		}
		if len(c.allowedDomains) > 0 && !matchesAny(host, c.allowedDomains) {
			continue
		}
		if matchesAny(host, c.blockedDomains) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
