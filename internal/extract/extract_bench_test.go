package extract

import (
    "strings"
    "testing"

    "github.com/hyperifyio/askpage/internal/dom"
)

// Benchmark the full selection pipeline on representative page sizes.
func BenchmarkSelectionContext(b *testing.B) {
    sizes := map[string][2]int{
        "small":  {2, 2},
        "medium": {50, 60},
        "large":  {200, 200},
    }
    for name, sz := range sizes {
        doc, err := dom.ParseString(makeHTML(sz[0], sz[1]), "https://bench.example")
        if err != nil {
            b.Fatalf("parse: %v", err)
        }
        r, ok := dom.FindText(doc, "needle phrase")
        if !ok {
            b.Fatalf("needle not found")
        }
        sel := dom.NewSelection(r)
        e := New()
        b.Run(name, func(b *testing.B) {
            for i := 0; i < b.N; i++ {
                sc, _ := e.SelectionContext(doc, sel, "needle phrase")
                pc := Merge(*sc, e.ExtractArticle(doc))
                _ = FormatContextForPrompt(pc)
            }
        })
    }
}

func makeHTML(paras int, itemsPerList int) string {
    builder := new(strings.Builder)
    builder.WriteString("<html><head><title>demo</title></head><body><main>")
    for i := 0; i < paras; i++ {
        builder.WriteString("<h2>Heading</h2><p>")
        builder.WriteString(sampleText)
        builder.WriteString("</p>")
    }
    builder.WriteString("<ul>")
    for i := 0; i < itemsPerList; i++ {
        builder.WriteString("<li>")
        builder.WriteString(sampleText)
        builder.WriteString("</li>")
    }
    builder.WriteString("</ul><section><h3>Last</h3><p>The <em>needle phrase</em> lives here.</p></section></main></body></html>")
    return builder.String()
}

const sampleText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."
