package gemini_test

import (
	"context"
	"testing"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestQueryProvider_Queries_ReturnsErrorWhenInputEmpty(t *testing.T) {
	t.Parallel()

	provider := gemini.NewQueryProvider(nil, "") // nil client ok for this test

	_, err := provider.Queries(context.Background(), sift.Input{})

	require.Error(t, err)
	assert.Equal(t, sift.EINVALID, sift.ErrorCode(err))
}

func TestBuildConfig_RequestsJSONArray(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig()

	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "application/json", config.ResponseMIMEType)
	require.NotNil(t, config.ResponseSchema)
	assert.Equal(t, genai.TypeArray, config.ResponseSchema.Type)
	assert.Equal(t, genai.TypeString, config.ResponseSchema.Items.Type)
}

func TestBuildUserPrompt_IncludesKeywordsAndNotes(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildUserPrompt(sift.Input{
		Keywords: []string{"grace hopper", "cobol"},
		Notes:    "focus on navy career",
	})

	assert.Contains(t, prompt, "<keyword>grace hopper</keyword>")
	assert.Contains(t, prompt, "<keyword>cobol</keyword>")
	assert.Contains(t, prompt, "<notes>focus on navy career</notes>")
	assert.Contains(t, prompt, "JSON array")
}

func TestBuildUserPrompt_OmitsEmptyNotes(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildUserPrompt(sift.Input{Keywords: []string{"cobol"}})

	assert.NotContains(t, prompt, "<notes>")
}

func TestParseQueries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "reads a JSON array",
			text: `["grace hopper navy", "\"COBOL\" history"]`,
			want: []string{"grace hopper navy", `"COBOL" history`},
		},
		{
			name: "strips a code fence",
			text: "```json\n[\"a\", \"b\"]\n```",
			want: []string{"a", "b"},
		},
		{
			name: "reads one query per line without list markers",
			text: "1. grace hopper\n- cobol origins\n\n* univac",
			want: []string{"grace hopper", "cobol origins", "univac"},
		},
		{
			name: "drops blank and repeated queries",
			text: `["a  b", "A B", " ", "c"]`,
			want: []string{"a b", "c"},
		},
		{
			name: "caps the number of queries",
			text: `["1","2","3","4","5","6","7","8","9","10"]`,
			want: []string{"1", "2", "3", "4", "5", "6", "7", "8"},
		},
		{
			name: "returns nothing for an empty response",
			text: "  ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := gemini.ParseQueries(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQueries_RejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := gemini.ParseQueries(`["unterminated`)

	require.Error(t, err)
	assert.Equal(t, sift.EINVALID, sift.ErrorCode(err))
}
