// Package htmltomarkdown renders extracted article HTML as Markdown text.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/sift"
)

// Ensure Converter implements sift.Converter at compile time.
var _ sift.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert article HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertPage(html, "")
}

// ConvertPage is like Convert but resolves relative links and images
// against the page URL.
func (c *Converter) ConvertPage(html string, pageURL string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", sift.Errorf(sift.EINVALID, "empty HTML input")
	}

	var result string
	var err error
	if pageURL == "" {
		result, err = c.conv.ConvertString(html)
	} else {
		result, err = c.conv.ConvertString(html, converter.WithDomain(pageURL))
	}
	if err != nil {
		return "", sift.Errorf(sift.EEXTRACTFAILED, "converting HTML: %v", err)
	}

	return strings.TrimSpace(result), nil
}
