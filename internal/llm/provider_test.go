package llm

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    openai "github.com/sashabaranov/go-openai"
)

func TestOpenAIProvider_SendsAttributionHeaders(t *testing.T) {
    var gotReferer, gotTitle, gotAuth, gotPath string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotReferer = r.Header.Get("HTTP-Referer")
        gotTitle = r.Header.Get("X-Title")
        gotAuth = r.Header.Get("Authorization")
        gotPath = r.URL.Path
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
            Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "hi"}}},
        })
    }))
    defer srv.Close()

    p := NewOpenAIProvider(Options{BaseURL: srv.URL + "/v1/", APIKey: "k", Referer: "https://askpage.example", Title: "askpage"})
    resp, err := p.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
        Model:    "m",
        Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "q"}},
    })
    if err != nil {
        t.Fatalf("call: %v", err)
    }
    if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "hi" {
        t.Fatalf("unexpected response: %+v", resp)
    }
    if gotPath != "/v1/chat/completions" {
        t.Fatalf("path = %q", gotPath)
    }
    if gotReferer != "https://askpage.example" || gotTitle != "askpage" {
        t.Fatalf("headers referer=%q title=%q", gotReferer, gotTitle)
    }
    if gotAuth != "Bearer k" {
        t.Fatalf("authorization = %q", gotAuth)
    }
}

func TestOpenAIProvider_NoHeadersWhenUnset(t *testing.T) {
    var sawReferer bool
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _, sawReferer = r.Header["Http-Referer"]
        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write([]byte(`{"object":"list","data":[{"id":"m1"}]}`))
    }))
    defer srv.Close()

    p := NewOpenAIProvider(Options{BaseURL: srv.URL, APIKey: "k"})
    var lister ModelLister = p
    models, err := lister.ListModels(context.Background())
    if err != nil {
        t.Fatalf("list: %v", err)
    }
    if len(models.Models) != 1 || models.Models[0].ID != "m1" {
        t.Fatalf("models = %+v", models.Models)
    }
    if sawReferer {
        t.Fatalf("referer header should not be sent when unset")
    }
}
