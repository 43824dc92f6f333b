package extract

import "strings"

// FormatContextForPrompt renders a merged context as the text block that is
// embedded in the outbound prompt. Absent fields omit their lines; only the
// selected text is always present, quoted, even when empty. Article content
// already contained in the surrounding paragraph is not repeated.
func FormatContextForPrompt(pc *PageContext) string {
    if pc == nil {
        return ""
    }
    parts := make([]string, 0, 12)

    if pc.PageTitle != "" {
        parts = append(parts, "Page: "+pc.PageTitle)
    }
    if pc.URL != "" {
        parts = append(parts, "URL: "+pc.URL)
    }
    if len(pc.Headings) > 0 {
        parts = append(parts, "Section hierarchy:", strings.Join(pc.Headings, " > "))
    }

    parts = append(parts, "Selected text:", quote(pc.SelectedText))

    para := pc.SurroundingParagraph
    if para != "" && para != pc.SelectedText {
        parts = append(parts, "\nFull paragraph:", quote(para))
    }

    if a := pc.ArticleContent; a != nil && a.Content != "" && !strings.Contains(para, a.Content) {
        parts = append(parts, "\nRelevant article content:", a.Content)
    }

    return strings.Join(parts, "\n")
}

func quote(s string) string { return `"` + s + `"` }
