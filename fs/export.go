// Package fs exports saved content to markdown files.
package fs

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/sift"
	"gopkg.in/yaml.v3"
)

// URLToPath converts a content URL to a relative file path under its host.
// Example: https://example.com/news/2024/storm → example.com/news/2024/storm.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", sift.Errorf(sift.EINVALID, "invalid URL: %v", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", sift.Errorf(sift.EINVALID, "URL has no host: %s", rawURL)
	}

	for _, seg := range strings.Split(u.Path, "/") {
		if seg == ".." {
			return "", sift.Errorf(sift.EINVALID, "path traversal in URL: %s", rawURL)
		}
	}

	p := strings.TrimPrefix(u.Path, "/")
	switch {
	case p == "":
		p = "index.md"
	case strings.HasSuffix(p, "/"):
		p += "index.md"
	default:
		p = strings.TrimSuffix(p, path.Ext(p)) + ".md"
	}
	return path.Join(host, p), nil
}

// frontmatter is the YAML header written above each exported item.
type frontmatter struct {
	ID         string    `yaml:"id"`
	Title      string    `yaml:"title"`
	Source     string    `yaml:"source"`
	Canonical  string    `yaml:"canonical"`
	Topic      string    `yaml:"topic"`
	Run        string    `yaml:"run"`
	Provenance string    `yaml:"provenance,omitempty"`
	Hash       string    `yaml:"hash"`
	Saved      time.Time `yaml:"saved"`
}

// FormatContent formats content with YAML frontmatter followed by its
// summary.
func FormatContent(c *sift.Content) (string, error) {
	header, err := yaml.Marshal(frontmatter{
		ID:         c.ID,
		Title:      c.Title,
		Source:     c.SourceURL,
		Canonical:  c.CanonicalURL,
		Topic:      c.TopicID,
		Run:        c.RunID,
		Provenance: c.Provenance,
		Hash:       c.ContentHash,
		Saved:      c.CreatedAt.UTC(),
	})
	if err != nil {
		return "", err
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	if c.Title != "" {
		b.WriteString("# ")
		b.WriteString(c.Title)
		b.WriteString("\n\n")
	}
	b.WriteString(c.Summary)
	b.WriteString("\n")
	return b.String(), nil
}

// Exporter writes content as markdown files with replace-on-commit
// semantics. Files are written to baseDir/name.tmp and moved to
// baseDir/name on Commit.
type Exporter struct {
	baseDir string
	name    string
}

// NewExporter creates a new Exporter.
func NewExporter(baseDir, name string) *Exporter {
	return &Exporter{
		baseDir: baseDir,
		name:    name,
	}
}

func (e *Exporter) tempDir() string {
	return filepath.Join(e.baseDir, e.name+".tmp")
}

func (e *Exporter) finalDir() string {
	return filepath.Join(e.baseDir, e.name)
}

// Save writes one item to the temporary directory.
func (e *Exporter) Save(ctx context.Context, c *sift.Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, err := URLToPath(c.CanonicalURL)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(e.tempDir(), filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	body, err := FormatContent(c)
	if err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(body), 0644)
}

// Commit replaces the final directory with the temporary one.
func (e *Exporter) Commit() error {
	if err := os.RemoveAll(e.finalDir()); err != nil {
		return err
	}
	return os.Rename(e.tempDir(), e.finalDir())
}

// Abort removes the temporary directory.
func (e *Exporter) Abort() error {
	return os.RemoveAll(e.tempDir())
}
