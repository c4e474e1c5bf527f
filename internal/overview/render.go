// Package overview flattens the nested AI overview document returned by the
// search API into linear markdown-like text.
package overview

import (
	"fmt"
	"strings"
	"unicode"
)

// NoContent is rendered when an overview has no blocks at all.
const NoContent = "No AI overview available"

type BlockType string

const (
	BlockHeading    BlockType = "heading"
	BlockParagraph  BlockType = "paragraph"
	BlockList       BlockType = "list"
	BlockExpandable BlockType = "expandable"
)

type Block struct {
	Type       BlockType  `json:"type"`
	Snippet    string     `json:"snippet,omitempty"`
	List       []ListItem `json:"list,omitempty"`
	TextBlocks []Block    `json:"text_blocks,omitempty"`
}

type ListItem struct {
	Title   string     `json:"title,omitempty"`
	Snippet string     `json:"snippet,omitempty"`
	List    []ListItem `json:"list,omitempty"`
}

type Reference struct {
	Title   string `json:"title,omitempty"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source,omitempty"`
	Index   int    `json:"index,omitempty"`
}

// Overview mirrors the ai_overview object of a search response.
type Overview struct {
	TextBlocks []Block     `json:"text_blocks,omitempty"`
	References []Reference `json:"references,omitempty"`
	PageToken  string      `json:"page_token,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// RenderOverview renders a possibly nil overview.
func RenderOverview(o *Overview) string {
	if o == nil {
		return NoContent
	}
	return Render(o.TextBlocks)
}

// Render walks blocks depth first and returns the flattened text with
// trailing whitespace removed.
func Render(blocks []Block) string {
	if len(blocks) == 0 {
		return NoContent
	}

	var b strings.Builder
	renderBlocks(&b, blocks)

	out := strings.TrimRightFunc(b.String(), unicode.IsSpace)
	if out == "" {
		return NoContent
	}
	return out
}

// renderBlocks never trims, so an expandable block splices exactly what its
// children would produce at the top level.
func renderBlocks(b *strings.Builder, blocks []Block) {
	for _, block := range blocks {
		switch block.Type {
		case BlockHeading:
			if block.Snippet != "" {
				fmt.Fprintf(b, "## %s\n\n", block.Snippet)
			}
		case BlockParagraph:
			if block.Snippet != "" {
				fmt.Fprintf(b, "%s\n\n", block.Snippet)
			}
		case BlockList:
			renderList(b, block.List)
		case BlockExpandable:
			renderBlocks(b, block.TextBlocks)
		default:
			if block.Snippet != "" {
				fmt.Fprintf(b, "%s\n\n", block.Snippet)
			}
		}
	}
}

func renderList(b *strings.Builder, items []ListItem) {
	for _, item := range items {
		if item.Title != "" {
			fmt.Fprintf(b, "## %s\n", item.Title)
		}
		if item.Snippet != "" {
			fmt.Fprintf(b, "%s\n\n", item.Snippet)
		}
		if len(item.List) == 0 {
			continue
		}
		for _, nested := range item.List {
			if nested.Snippet != "" {
				fmt.Fprintf(b, "  - %s\n", nested.Snippet)
			}
		}
		b.WriteString("\n")
	}
}

// FormatReferences lists reference links as "[1]link" lines.
func FormatReferences(refs []Reference) string {
	if len(refs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(refs))
	for i, ref := range refs {
		lines = append(lines, fmt.Sprintf("[%d]%s", i+1, ref.Link))
	}
	return strings.Join(lines, "\n")
}
