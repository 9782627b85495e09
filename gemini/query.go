// Package gemini expands topical input into search queries with Google
// Gemini.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/sift"
	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// maxQueries caps how many queries are requested from the model.
const maxQueries = 8

// Ensure QueryProvider implements sift.QueryProvider at compile time.
var _ sift.QueryProvider = (*QueryProvider)(nil)

// QueryProvider implements sift.QueryProvider using Google Gemini.
type QueryProvider struct {
	client *genai.Client
	model  string
}

// NewQueryProvider creates a new QueryProvider. An empty model uses
// DefaultModel.
func NewQueryProvider(client *genai.Client, model string) *QueryProvider {
	if model == "" {
		model = DefaultModel
	}
	return &QueryProvider{client: client, model: model}
}

// Queries asks the model for web search queries covering the input.
func (p *QueryProvider) Queries(ctx context.Context, input sift.Input) ([]string, error) {
	if input.IsEmpty() {
		return nil, sift.Errorf(sift.EINVALID, "input required")
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(input)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, sift.Errorf(sift.EINTERNAL, "gemini returned nil result")
	}

	return ParseQueries(result.Text())
}

// BuildConfig returns the GenerateContentConfig for query expansion. The
// response is constrained to a JSON array of strings.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.3)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You write web search queries for a research crawler. Given topic keywords and notes, " +
					"return short, distinct queries that would find news articles, encyclopedia entries and primary sources. " +
					"Quote multi-word names. Do not number the queries or add commentary.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	}
}

// BuildUserPrompt builds the prompt describing the topic.
func BuildUserPrompt(input sift.Input) string {
	var sb strings.Builder
	sb.WriteString("<topic>\n")
	for _, k := range input.Keywords {
		fmt.Fprintf(&sb, "<keyword>%s</keyword>\n", k)
	}
	if input.Notes != "" {
		fmt.Fprintf(&sb, "<notes>%s</notes>\n", input.Notes)
	}
	sb.WriteString("</topic>\n\n")
	fmt.Fprintf(&sb, "Return at most %d search queries as a JSON array of strings.", maxQueries)
	return sb.String()
}

// ParseQueries reads the model response. It accepts a JSON array,
// optionally wrapped in a Markdown code fence, or one query per line.
// Blank and repeated queries are dropped.
func ParseQueries(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var raw []string
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, sift.Errorf(sift.EINVALID, "malformed query list: %v", err)
		}
	} else {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimLeft(strings.TrimSpace(line), "-*0123456789.) ")
			raw = append(raw, line)
		}
	}

	seen := make(map[string]bool, len(raw))
	queries := make([]string, 0, len(raw))
	for _, q := range raw {
		q = strings.Join(strings.Fields(q), " ")
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, q)
		if len(queries) == maxQueries {
			break
		}
	}
	return queries, nil
}
