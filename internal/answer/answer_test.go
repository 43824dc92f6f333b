package answer

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"

    openai "github.com/sashabaranov/go-openai"

    "github.com/hyperifyio/askpage/internal/cache"
    "github.com/hyperifyio/askpage/internal/llm"
)

type capturingClient struct {
    calls   int
    lastReq openai.ChatCompletionRequest
    resp    openai.ChatCompletionResponse
    err     error
}

func (c *capturingClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
    c.calls++
    c.lastReq = req
    return c.resp, c.err
}

func reply(s string) openai.ChatCompletionResponse {
    return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{
        Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: s},
    }}}
}

func TestAsk_SendsSystemThenUser(t *testing.T) {
    cc := &capturingClient{resp: reply("answer")}
    a := &Answerer{Client: cc}
    out, err := a.Ask(context.Background(), Request{Model: "m", Prompt: "P", APIKey: "k"})
    if err != nil {
        t.Fatalf("ask: %v", err)
    }
    if out != "answer" {
        t.Fatalf("out = %q", out)
    }
    msgs := cc.lastReq.Messages
    if len(msgs) != 2 || msgs[0].Role != "system" || msgs[0].Content != SystemPrompt || msgs[1].Role != "user" || msgs[1].Content != "P" {
        t.Fatalf("unexpected messages: %+v", msgs)
    }
    if cc.lastReq.Model != "m" {
        t.Fatalf("model = %q", cc.lastReq.Model)
    }
}

func TestAsk_MissingKeyMakesNoCall(t *testing.T) {
    cc := &capturingClient{resp: reply("x")}
    _, err := (&Answerer{Client: cc}).Ask(context.Background(), Request{Model: "m", Prompt: "p"})
    if !errors.Is(err, ErrMissingAPIKey) {
        t.Fatalf("err = %v", err)
    }
    if err.Error() != "OpenRouter API key not set" {
        t.Fatalf("message = %q", err.Error())
    }
    if cc.calls != 0 {
        t.Fatalf("no request expected, got %d", cc.calls)
    }
}

func TestAsk_EmptyChoicesIsInvalid(t *testing.T) {
    cc := &capturingClient{}
    _, err := (&Answerer{Client: cc}).Ask(context.Background(), Request{Model: "m", Prompt: "p", APIKey: "k"})
    if !errors.Is(err, ErrInvalidResponse) {
        t.Fatalf("err = %v", err)
    }
    if err.Error() != "Invalid response format from API" {
        t.Fatalf("message = %q", err.Error())
    }
    if !IsUpstream(err) {
        t.Fatalf("invalid response should count as upstream")
    }
}

func TestIsUpstream(t *testing.T) {
    cc := &capturingClient{err: errors.New("dial tcp: connection refused")}
    _, err := (&Answerer{Client: cc}).Ask(context.Background(), Request{Model: "m", Prompt: "p", APIKey: "k"})
    if !errors.Is(err, ErrTransport) || !IsUpstream(err) {
        t.Fatalf("transport failure should be upstream: %v", err)
    }
    if !IsUpstream(fmt.Errorf("ask: %w", &StatusError{StatusCode: 500})) {
        t.Fatalf("wrapped status error should be upstream")
    }
    if IsUpstream(errors.New("disk full")) || IsUpstream(ErrMissingAPIKey) {
        t.Fatalf("local failures are not upstream")
    }
}

func TestAsk_FailureIsNotRetried(t *testing.T) {
    cc := &capturingClient{err: errors.New("boom")}
    _, err := (&Answerer{Client: cc}).Ask(context.Background(), Request{Model: "m", Prompt: "p", APIKey: "k"})
    if err == nil {
        t.Fatalf("expected error")
    }
    if cc.calls != 1 {
        t.Fatalf("expected exactly one call, got %d", cc.calls)
    }
}

func TestAsk_StatusErrorUsesProviderMessage(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        w.WriteHeader(http.StatusUnauthorized)
        _, _ = w.Write([]byte(`{"error":{"message":"No auth credentials found","code":401}}`))
    }))
    defer srv.Close()

    a := &Answerer{Client: llm.NewOpenAIProvider(llm.Options{BaseURL: srv.URL, APIKey: "k"})}
    _, err := a.Ask(context.Background(), Request{Model: "m", Prompt: "p", APIKey: "k"})
    var se *StatusError
    if !errors.As(err, &se) {
        t.Fatalf("expected StatusError, got %T %v", err, err)
    }
    if se.StatusCode != http.StatusUnauthorized || se.Error() != "No auth credentials found" {
        t.Fatalf("status=%d msg=%q", se.StatusCode, se.Error())
    }
}

func TestAsk_StatusErrorWithoutBody(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusBadGateway)
    }))
    defer srv.Close()

    a := &Answerer{Client: llm.NewOpenAIProvider(llm.Options{BaseURL: srv.URL, APIKey: "k"})}
    _, err := a.Ask(context.Background(), Request{Model: "m", Prompt: "p", APIKey: "k"})
    var se *StatusError
    if !errors.As(err, &se) {
        t.Fatalf("expected StatusError, got %T %v", err, err)
    }
    if se.Error() != "API request failed with status 502" {
        t.Fatalf("msg = %q", se.Error())
    }
}

func TestAsk_CacheShortCircuits(t *testing.T) {
    cc := &capturingClient{resp: reply("cached answer")}
    a := &Answerer{Client: cc, Cache: &cache.AnswerCache{Dir: t.TempDir()}}
    req := Request{Model: "m", Prompt: "p", APIKey: "k"}
    for i := 0; i < 2; i++ {
        out, err := a.Ask(context.Background(), req)
        if err != nil || out != "cached answer" {
            t.Fatalf("ask %d: %q %v", i, out, err)
        }
    }
    if cc.calls != 1 {
        t.Fatalf("second ask should hit cache, calls=%d", cc.calls)
    }
}
