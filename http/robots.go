package http

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fwojciec/sift"
	"github.com/temoto/robotstxt"
)

// DefaultRobotsTimeout bounds a robots.txt download.
const DefaultRobotsTimeout = 5 * time.Second

var _ sift.RobotsChecker = (*RobotsChecker)(nil)

// RobotsChecker answers robots.txt queries, caching one parsed file per
// scheme and host. Unreachable robots.txt files allow everything.
// It is safe for concurrent use by multiple goroutines.
type RobotsChecker struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	hosts map[string]*robotsEntry
}

type robotsEntry struct {
	once  sync.Once
	group *robotstxt.Group
}

// NewRobotsChecker creates a RobotsChecker that matches rules for userAgent.
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: DefaultRobotsTimeout}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
		hosts:     make(map[string]*robotsEntry),
	}
}

// Allowed reports whether the user agent may fetch rawURL.
func (c *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, sift.Errorf(sift.EINVALID, "invalid url %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return true, nil
	}

	origin := u.Scheme + "://" + u.Host
	c.mu.Lock()
	entry, ok := c.hosts[origin]
	if !ok {
		entry = &robotsEntry{}
		c.hosts[origin] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.group = c.load(ctx, origin)
	})
	if entry.group == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return entry.group.Test(path), nil
}

// load downloads and parses robots.txt. A nil group allows everything.
func (c *RobotsChecker) load(ctx context.Context, origin string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data.FindGroup(c.userAgent)
}
