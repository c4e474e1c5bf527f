package overview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBlockTypes(t *testing.T) {
	blocks := []Block{
		{Type: BlockHeading, Snippet: "Best brokers"},
		{Type: BlockParagraph, Snippet: "Several options exist."},
		{Type: BlockList, List: []ListItem{
			{Title: "Fubon", Snippet: "Low fees", List: []ListItem{
				{Snippet: "mobile app"},
				{Snippet: "web platform"},
			}},
			{Snippet: "Yuanta is popular"},
		}},
		{Type: "table", Snippet: "fallback text"},
	}

	want := "## Best brokers\n\n" +
		"Several options exist.\n\n" +
		"## Fubon\nLow fees\n\n" +
		"  - mobile app\n  - web platform\n\n" +
		"Yuanta is popular\n\n" +
		"fallback text"

	assert.Equal(t, want, Render(blocks))
}

func TestRenderExpandableIsAssociative(t *testing.T) {
	heading := Block{Type: BlockHeading, Snippet: "Summary"}
	paragraph := Block{Type: BlockParagraph, Snippet: "Body text."}
	tail := Block{Type: BlockParagraph, Snippet: "After."}

	nested := Render([]Block{
		{Type: BlockExpandable, TextBlocks: []Block{heading, paragraph}},
		tail,
	})
	flat := Render([]Block{heading, paragraph, tail})

	assert.Equal(t, flat, nested)
	assert.Equal(t, "## Summary\n\nBody text.\n\nAfter.", nested)
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, NoContent, Render(nil))
	assert.Equal(t, NoContent, Render([]Block{}))
	assert.Equal(t, NoContent, RenderOverview(nil))
	assert.Equal(t, NoContent, Render([]Block{{Type: BlockExpandable}}))
}

func TestRenderOverviewFromJSON(t *testing.T) {
	raw := `{
		"text_blocks": [
			{"type": "paragraph", "snippet": "Intro"},
			{"type": "expandable", "text_blocks": [{"type": "heading", "snippet": "More"}]}
		],
		"references": [{"title": "A", "link": "https://a.example"}],
		"page_token": "tok"
	}`

	var o Overview
	require.NoError(t, json.Unmarshal([]byte(raw), &o))

	assert.Equal(t, "Intro\n\n## More", RenderOverview(&o))
	assert.Equal(t, "tok", o.PageToken)
}

func TestFormatReferences(t *testing.T) {
	refs := []Reference{{Link: "https://a.example"}, {Link: "https://b.example"}}
	assert.Equal(t, "[1]https://a.example\n[2]https://b.example", FormatReferences(refs))
	assert.Equal(t, "", FormatReferences(nil))
}
