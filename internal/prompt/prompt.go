// Package prompt assembles the outbound user message from a page context
// and a question.
package prompt

import (
	"strings"

	"github.com/hyperifyio/askpage/internal/extract"
)

// Template is the fixed user-message frame. Placeholders are {context},
// {selection} and {question}.
const Template = `You are a helpful AI assistant analyzing web content. 

Context from the webpage:
{context}

User's selection: "{selection}"

User's question: {question}

Please provide a detailed response based on the given context and selection. If the context is insufficient to answer accurately, please indicate that.`

const (
	noContext   = "No additional context available"
	noSelection = "No text selected"
)

// Build fills Template for question using pc. A nil pc yields the
// placeholder texts. The formatted context is preferred, then the raw
// paragraph; article content missing from the chosen context is appended.
func Build(question string, pc *extract.PageContext) string {
	contextText := noContext
	selection := noSelection
	if pc != nil {
		switch {
		case pc.FormattedContext != "":
			contextText = pc.FormattedContext
		case pc.SurroundingParagraph != "":
			contextText = pc.SurroundingParagraph
		}
		selection = pc.SelectedText
		if a := pc.ArticleContent; a != nil && a.Content != "" && !strings.Contains(contextText, a.Content) {
			contextText += "\n\nFull article content: " + a.Content
		}
	}
	return Fill(Template, contextText, selection, question)
}

// Fill substitutes the three placeholders in one pass. Placeholder-looking
// text inside the substituted values is left alone.
func Fill(tmpl, contextText, selection, question string) string {
	r := strings.NewReplacer(
		"{context}", contextText,
		"{selection}", selection,
		"{question}", question,
	)
	return r.Replace(tmpl)
}
