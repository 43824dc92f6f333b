package llm

import (
    "context"
    "net/http"
    "strings"

    openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the OpenRouter OpenAI-compatible endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Client is the minimal interface needed to call a chat model. It mirrors
// CreateChatCompletion so any OpenAI-compatible backend can be adapted.
type Client interface {
    CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister is an optional capability; detect it with a type assertion.
type ModelLister interface {
    ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Options configure an OpenAIProvider.
type Options struct {
    BaseURL string
    APIKey  string
    // Referer and Title are sent as HTTP-Referer and X-Title, which
    // OpenRouter uses to attribute traffic to an application.
    Referer string
    Title   string
    // HTTPClient is the base client; nil uses http.DefaultClient's transport.
    HTTPClient *http.Client
}

// OpenAIProvider adapts *openai.Client to the Client/ModelLister interfaces.
type OpenAIProvider struct {
    Inner *openai.Client
}

// NewOpenAIProvider builds a provider for opts.
func NewOpenAIProvider(opts Options) *OpenAIProvider {
    cfg := openai.DefaultConfig(opts.APIKey)
    base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
    if base == "" {
        base = DefaultBaseURL
    }
    cfg.BaseURL = base

    var inner http.RoundTripper = http.DefaultTransport
    hc := &http.Client{}
    if opts.HTTPClient != nil {
        *hc = *opts.HTTPClient
        if opts.HTTPClient.Transport != nil {
            inner = opts.HTTPClient.Transport
        }
    }
    hc.Transport = &headerTransport{inner: inner, referer: opts.Referer, title: opts.Title}
    cfg.HTTPClient = hc
    return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
    return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
    return p.Inner.ListModels(ctx)
}

type headerTransport struct {
    inner   http.RoundTripper
    referer string
    title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
    if t.referer == "" && t.title == "" {
        return t.inner.RoundTrip(req)
    }
    r := req.Clone(req.Context())
    if t.referer != "" {
        r.Header.Set("HTTP-Referer", t.referer)
    }
    if t.title != "" {
        r.Header.Set("X-Title", t.title)
    }
    return t.inner.RoundTrip(r)
}
