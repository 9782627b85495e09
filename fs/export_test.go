package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestURLToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "simple path", url: "https://example.com/news/storm", want: "example.com/news/storm.md"},
		{name: "trailing slash becomes index", url: "https://example.com/news/", want: "example.com/news/index.md"},
		{name: "root path becomes index", url: "https://example.com/", want: "example.com/index.md"},
		{name: "root without trailing slash", url: "https://example.com", want: "example.com/index.md"},
		{name: "replaces page extension", url: "https://example.com/story.html", want: "example.com/story.md"},
		{name: "ignores query and fragment", url: "https://example.com/a?id=2#top", want: "example.com/a.md"},
		{name: "lowercases and drops port", url: "https://Example.COM:8443/a", want: "example.com/a.md"},
		{name: "rejects path traversal", url: "https://example.com/../../etc/passwd", wantErr: true},
		{name: "rejects URL without host", url: "/relative/path", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fs.URLToPath(tt.url)

			if tt.wantErr {
				assert.Equal(t, sift.EINVALID, sift.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func testContent() *sift.Content {
	return &sift.Content{
		ID:           "c1",
		TopicID:      "space",
		RunID:        "run-1",
		Title:        "Solar storm: what we know",
		SourceURL:    "https://example.com/news/storm?utm_source=x",
		CanonicalURL: "https://example.com/news/storm",
		ContentHash:  "abc123",
		Summary:      "A strong geomagnetic storm reached Earth.",
		Provenance:   "wikipedia",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatContent(t *testing.T) {
	t.Parallel()

	t.Run("writes parseable frontmatter and the summary", func(t *testing.T) {
		t.Parallel()

		out, err := fs.FormatContent(testContent())
		require.NoError(t, err)

		require.True(t, strings.HasPrefix(out, "---\n"))
		var header struct {
			ID        string    `yaml:"id"`
			Title     string    `yaml:"title"`
			Canonical string    `yaml:"canonical"`
			Saved     time.Time `yaml:"saved"`
		}
		rest := strings.TrimPrefix(out, "---\n")
		idx := strings.Index(rest, "---\n")
		require.GreaterOrEqual(t, idx, 0)
		require.NoError(t, yaml.Unmarshal([]byte(rest[:idx]), &header))

		assert.Equal(t, "c1", header.ID)
		assert.Equal(t, "Solar storm: what we know", header.Title)
		assert.Equal(t, "https://example.com/news/storm", header.Canonical)
		assert.True(t, header.Saved.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
		assert.Contains(t, out, "# Solar storm: what we know\n\nA strong geomagnetic storm reached Earth.\n")
	})
}

func TestExporter(t *testing.T) {
	t.Parallel()

	t.Run("save writes to the temporary directory", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		e := fs.NewExporter(base, "space")

		require.NoError(t, e.Save(context.Background(), testContent()))

		_, err := os.Stat(filepath.Join(base, "space.tmp", "example.com", "news", "storm.md"))
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(base, "space"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("commit replaces the previous export", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		stale := filepath.Join(base, "space", "old.md")
		require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
		require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

		e := fs.NewExporter(base, "space")
		require.NoError(t, e.Save(context.Background(), testContent()))
		require.NoError(t, e.Commit())

		data, err := os.ReadFile(filepath.Join(base, "space", "example.com", "news", "storm.md"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "A strong geomagnetic storm")
		_, err = os.Stat(stale)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(filepath.Join(base, "space.tmp"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("abort removes the temporary directory", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		e := fs.NewExporter(base, "space")
		require.NoError(t, e.Save(context.Background(), testContent()))

		require.NoError(t, e.Abort())

		_, err := os.Stat(filepath.Join(base, "space.tmp"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("save rejects path traversal", func(t *testing.T) {
		t.Parallel()

		c := testContent()
		c.CanonicalURL = "https://example.com/../../../etc/passwd"

		err := fs.NewExporter(t.TempDir(), "space").Save(context.Background(), c)

		assert.Equal(t, sift.EINVALID, sift.ErrorCode(err))
	})

	t.Run("save stops when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := fs.NewExporter(t.TempDir(), "space").Save(ctx, testContent())

		assert.ErrorIs(t, err, context.Canceled)
	})
}
