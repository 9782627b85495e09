package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/sift"
)

// DefaultRedirectTimeout bounds the single redirect hop.
const DefaultRedirectTimeout = 3 * time.Second

// trackingParams are query parameters dropped during normalization,
// in addition to any utm_* parameter.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"ref":    true,
}

// NormalizeURL returns a stable key for raw without touching the network.
// Relative input is resolved against base. The host is lowercased and a
// leading "www." removed, default ports and the fragment are dropped,
// tracking parameters are removed and the rest sorted by key.
// Input that cannot be parsed as an absolute URL is returned trimmed.
func NormalizeURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if !u.IsAbs() && base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return raw
		}
		u = b.ResolveReference(u)
	}
	if u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	u.Host = host

	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for key := range q {
		if trackingParams[strings.ToLower(key)] || strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	u.ForceQuery = false

	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// ExtractDomain returns the lowercased host of raw without a leading "www.".
// Returns "" if raw has no host.
func ExtractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// IsPathSimilar reports whether a and b share a domain and one path is a
// prefix of the other.
func IsPathSimilar(a, b string) bool {
	ua, err := url.Parse(NormalizeURL(a, ""))
	if err != nil {
		return false
	}
	ub, err := url.Parse(NormalizeURL(b, ""))
	if err != nil {
		return false
	}
	if ua.Host == "" || ua.Host != ub.Host {
		return false
	}
	pa := strings.TrimSuffix(ua.Path, "/") + "/"
	pb := strings.TrimSuffix(ub.Path, "/") + "/"
	return strings.HasPrefix(pa, pb) || strings.HasPrefix(pb, pa)
}

// URLHash returns the hash used to deduplicate candidate URLs.
func URLHash(normalizedURL string) string {
	return computeHash(normalizedURL)
}

// Canonical is the result of canonicalizing a URL.
type Canonical struct {
	CanonicalURL  string   `json:"canonicalUrl"`
	OriginalURL   string   `json:"originalUrl"`
	RedirectChain []string `json:"redirectChain"`
	FinalDomain   string   `json:"finalDomain"`
}

// Canonicalizer maps URLs to canonical keys, following at most one redirect.
type Canonicalizer struct {
	// Resolver follows the redirect hop. Nil disables the hop.
	Resolver sift.RedirectResolver

	// Timeout bounds the redirect hop. Zero uses DefaultRedirectTimeout.
	Timeout time.Duration
}

// Canonicalize resolves raw against base, follows one redirect and
// normalizes the result. It never fails: a failed hop keeps the
// pre-redirect URL and an unparseable URL is returned as is.
func (c *Canonicalizer) Canonicalize(ctx context.Context, raw, base string) Canonical {
	start := NormalizeURL(raw, base)
	out := Canonical{
		OriginalURL:   raw,
		RedirectChain: []string{start},
	}

	target := start
	if c.Resolver != nil && strings.HasPrefix(start, "http") {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = DefaultRedirectTimeout
		}
		hopCtx, cancel := context.WithTimeout(ctx, timeout)
		next, err := c.Resolver.Resolve(hopCtx, start)
		cancel()
		if err == nil && next != "" {
			next = NormalizeURL(next, start)
			if next != start {
				out.RedirectChain = append(out.RedirectChain, next)
				target = next
			}
		}
	}

	out.CanonicalURL = target
	out.FinalDomain = ExtractDomain(target)
	return out
}

// computeHash computes a hash of the content using xxhash.
func computeHash(content string) string {
	h := xxhash.Sum64String(content)
	return fmt.Sprintf("%x", h)
}

// ComputeHash computes a hash of the content using xxhash.
func ComputeHash(content string) string {
	return computeHash(content)
}
