package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/sift"
)

// DefaultSearchTimeout bounds one search request.
const DefaultSearchTimeout = 10 * time.Second

// Provider names.
const (
	WikipediaName = "wikipedia"
	NewsAPIName   = "newsapi"
	ArchiveName   = "archive"
)

// Default endpoints.
const (
	DefaultWikipediaURL = "https://en.wikipedia.org"
	DefaultNewsAPIURL   = "https://newsapi.org"
	DefaultArchiveURL   = "https://archive.org"
)

var (
	_ sift.SearchProvider = (*WikipediaSearch)(nil)
	_ sift.SearchProvider = (*NewsAPISearch)(nil)
	_ sift.SearchProvider = (*ArchiveSearch)(nil)
)

var siteOperator = regexp.MustCompile(`(?i)\bsite:(\S+)`)

// parsedQuery is a search query split into free text and a site restriction.
type parsedQuery struct {
	text string
	site string
}

func parseQuery(q string) parsedQuery {
	var p parsedQuery
	if m := siteOperator.FindStringSubmatch(q); m != nil {
		p.site = strings.ToLower(strings.TrimPrefix(m[1], "www."))
	}
	p.text = strings.Join(strings.Fields(siteOperator.ReplaceAllString(q, "")), " ")
	return p
}

// restrictedElsewhere reports whether the query is limited to a site
// outside of domain.
func (p parsedQuery) restrictedElsewhere(domain string) bool {
	if p.site == "" || p.site == domain {
		return false
	}
	return !strings.HasSuffix(p.site, "."+domain) && !strings.HasSuffix(domain, "."+p.site)
}

// searchConfig holds the settings shared by search providers.
type searchConfig struct {
	client    *http.Client
	baseURL   string
	userAgent string
	apiKey    string
}

// SearchOption configures a search provider.
type SearchOption func(*searchConfig)

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) SearchOption {
	return func(c *searchConfig) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) SearchOption {
	return func(c *searchConfig) {
		c.client = client
	}
}

// WithSearchUserAgent sets the User-Agent header.
func WithSearchUserAgent(ua string) SearchOption {
	return func(c *searchConfig) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func newSearchConfig(baseURL string, opts []SearchOption) searchConfig {
	c := searchConfig{
		client:    &http.Client{Timeout: DefaultSearchTimeout},
		baseURL:   baseURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c searchConfig) getJSON(ctx context.Context, endpoint string, header http.Header, v any) error {
	resp, err := get(ctx, c.client, endpoint, c.userAgent, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func pageOf(opts sift.SearchOptions) int {
	if opts.Page < 1 {
		return 1
	}
	return opts.Page
}

// WikipediaSearch searches Wikipedia articles with the MediaWiki API.
type WikipediaSearch struct {
	cfg searchConfig
}

// NewWikipediaSearch creates a WikipediaSearch.
func NewWikipediaSearch(opts ...SearchOption) *WikipediaSearch {
	return &WikipediaSearch{cfg: newSearchConfig(DefaultWikipediaURL, opts)}
}

// Name returns "wikipedia".
func (s *WikipediaSearch) Name() string { return WikipediaName }

type wikipediaResponse struct {
	Query struct {
		Search []struct {
			Title     string    `json:"title"`
			Snippet   string    `json:"snippet"`
			Timestamp time.Time `json:"timestamp"`
		} `json:"search"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Search returns Wikipedia articles matching the query. Queries limited
// to another site return nothing.
func (s *WikipediaSearch) Search(ctx context.Context, query string, opts sift.SearchOptions) ([]sift.Article, error) {
	q := parseQuery(query)
	if q.text == "" || q.restrictedElsewhere("wikipedia.org") {
		return nil, nil
	}
	limit := opts.PageSize
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("format", "json")
	params.Set("srsearch", q.text)
	params.Set("srlimit", strconv.Itoa(limit))
	params.Set("sroffset", strconv.Itoa((pageOf(opts)-1)*limit))
	if opts.SortBy == sift.SortByPublishedAt {
		params.Set("srsort", "last_edit_desc")
	}

	var body wikipediaResponse
	if err := s.cfg.getJSON(ctx, s.cfg.baseURL+"/w/api.php?"+params.Encode(), nil, &body); err != nil {
		return nil, err
	}
	if body.Error != nil {
		return nil, fmt.Errorf("wikipedia: %s: %s", body.Error.Code, body.Error.Info)
	}

	articles := make([]sift.Article, 0, len(body.Query.Search))
	for _, r := range body.Query.Search {
		articles = append(articles, sift.Article{
			URL:         s.cfg.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(r.Title, " ", "_")),
			Title:       r.Title,
			Snippet:     stripTags(r.Snippet),
			PublishedAt: r.Timestamp,
		})
	}
	return articles, nil
}

// NewsAPISearch searches news articles with the NewsAPI "everything"
// endpoint.
type NewsAPISearch struct {
	cfg searchConfig
}

// NewNewsAPISearch creates a NewsAPISearch authenticated with apiKey.
func NewNewsAPISearch(apiKey string, opts ...SearchOption) *NewsAPISearch {
	cfg := newSearchConfig(DefaultNewsAPIURL, opts)
	cfg.apiKey = apiKey
	return &NewsAPISearch{cfg: cfg}
}

// Name returns "newsapi".
func (s *NewsAPISearch) Name() string { return NewsAPIName }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		URL         string    `json:"url"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// Search returns news articles matching the query. A site operator
// becomes a domain restriction.
func (s *NewsAPISearch) Search(ctx context.Context, query string, opts sift.SearchOptions) ([]sift.Article, error) {
	q := parseQuery(query)
	if q.text == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", q.text)
	params.Set("page", strconv.Itoa(pageOf(opts)))
	if opts.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.SortBy == sift.SortByPublishedAt {
		params.Set("sortBy", "publishedAt")
	} else {
		params.Set("sortBy", "relevancy")
	}
	if q.site != "" {
		params.Set("domains", q.site)
	}

	header := http.Header{}
	header.Set("X-Api-Key", s.cfg.apiKey)

	var body newsAPIResponse
	if err := s.cfg.getJSON(ctx, s.cfg.baseURL+"/v2/everything?"+params.Encode(), header, &body); err != nil {
		return nil, err
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("newsapi: %s: %s", body.Code, body.Message)
	}

	articles := make([]sift.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		if a.URL == "" {
			continue
		}
		articles = append(articles, sift.Article{
			URL:         a.URL,
			Title:       a.Title,
			Snippet:     a.Description,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}

// ArchiveSearch searches Internet Archive items with the advanced search API.
type ArchiveSearch struct {
	cfg searchConfig
}

// NewArchiveSearch creates an ArchiveSearch.
func NewArchiveSearch(opts ...SearchOption) *ArchiveSearch {
	return &ArchiveSearch{cfg: newSearchConfig(DefaultArchiveURL, opts)}
}

// Name returns "archive".
func (s *ArchiveSearch) Name() string { return ArchiveName }

type archiveResponse struct {
	Response struct {
		Docs []struct {
			Identifier  string          `json:"identifier"`
			Title       json.RawMessage `json:"title"`
			Description json.RawMessage `json:"description"`
			PublicDate  time.Time       `json:"publicdate"`
		} `json:"docs"`
	} `json:"response"`
}

// Search returns archive items matching the query. Queries limited to
// another site return nothing.
func (s *ArchiveSearch) Search(ctx context.Context, query string, opts sift.SearchOptions) ([]sift.Article, error) {
	q := parseQuery(query)
	if q.text == "" || q.restrictedElsewhere("archive.org") {
		return nil, nil
	}
	rows := opts.PageSize
	if rows <= 0 {
		rows = 10
	}

	params := url.Values{}
	params.Set("q", q.text)
	params.Add("fl[]", "identifier")
	params.Add("fl[]", "title")
	params.Add("fl[]", "description")
	params.Add("fl[]", "publicdate")
	params.Set("rows", strconv.Itoa(rows))
	params.Set("page", strconv.Itoa(pageOf(opts)))
	params.Set("output", "json")
	if opts.SortBy == sift.SortByPublishedAt {
		params.Set("sort[]", "publicdate desc")
	}

	var body archiveResponse
	if err := s.cfg.getJSON(ctx, s.cfg.baseURL+"/advancedsearch.php?"+params.Encode(), nil, &body); err != nil {
		return nil, err
	}

	articles := make([]sift.Article, 0, len(body.Response.Docs))
	for _, d := range body.Response.Docs {
		if d.Identifier == "" {
			continue
		}
		articles = append(articles, sift.Article{
			URL:         s.cfg.baseURL + "/details/" + url.PathEscape(d.Identifier),
			Title:       firstString(d.Title),
			Snippet:     stripTags(firstString(d.Description)),
			PublishedAt: d.PublicDate,
		})
	}
	return articles, nil
}

// firstString decodes a field that may be a string or a list of strings.
func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripTags removes inline markup from short API snippets.
func stripTags(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(tagPattern.ReplaceAllString(s, ""))), " ")
}
