package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/yuin/goldmark"

	"github.com/hyperifyio/askpage/internal/store"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatText     = "txt"
	FormatPDF      = "pdf"
)

// Exporter renders a conversation in one of the supported formats.
type Exporter struct {
	toggle
}

// SupportedFormats lists the accepted format names.
func (e *Exporter) SupportedFormats() []string {
	return []string{FormatJSON, FormatMarkdown, FormatHTML, FormatText, FormatPDF}
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch format {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Export renders conv. An empty format means json.
func (e *Exporter) Export(conv []store.Turn, format string) ([]byte, error) {
	if !e.Enabled() {
		return nil, ErrExportDisabled
	}
	if format == "" {
		format = FormatJSON
	}
	switch format {
	case FormatJSON:
		if conv == nil {
			conv = []store.Turn{}
		}
		return json.MarshalIndent(conv, "", "  ")
	case FormatMarkdown:
		return []byte(exportMarkdown(conv)), nil
	case FormatHTML:
		return exportHTML(conv)
	case FormatText:
		return []byte(exportText(conv)), nil
	case FormatPDF:
		return exportPDF(conv)
	default:
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, format, strings.Join(e.SupportedFormats(), ", "))
	}
}

func roleLabel(role string) string {
	if role == store.RoleUser {
		return "User"
	}
	return "Assistant"
}

func exportMarkdown(conv []store.Turn) string {
	var sb strings.Builder
	for _, t := range conv {
		sb.WriteString("**" + roleLabel(t.Role) + "**:\n")
		sb.WriteString(t.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func exportText(conv []store.Turn) string {
	var sb strings.Builder
	for _, t := range conv {
		sb.WriteString(roleLabel(t.Role) + ":\n")
		sb.WriteString(t.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

const htmlHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Conversation Export</title>
<style>
.message { margin: 1em 0; padding: 1em; border: 1px solid #ccc; }
.user { background: #f0f0f0; }
.assistant { background: #e6f3ff; }
.role { font-weight: bold; margin-bottom: 0.5em; }
</style>
</head>
<body>
`

// exportHTML renders each message body as Markdown. Raw HTML in messages
// is dropped by goldmark's default renderer.
func exportHTML(conv []store.Turn) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(htmlHead)
	for _, t := range conv {
		class := store.RoleAssistant
		if t.Role == store.RoleUser {
			class = store.RoleUser
		}
		fmt.Fprintf(&buf, "<div class=\"message %s\">\n<div class=\"role\">%s</div>\n<div class=\"content\">\n", class, html.EscapeString(roleLabel(t.Role)))
		if err := goldmark.Convert([]byte(t.Content), &buf); err != nil {
			return nil, fmt.Errorf("render markdown: %w", err)
		}
		buf.WriteString("</div>\n</div>\n")
	}
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

func exportPDF(conv []store.Turn) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Conversation Export", true)
	pdf.AddPage()
	for _, t := range conv {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr(roleLabel(t.Role)+":"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range strings.Split(t.Content, "\n") {
			if strings.TrimSpace(line) == "" {
				pdf.Ln(3)
				continue
			}
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
		pdf.Ln(4)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
