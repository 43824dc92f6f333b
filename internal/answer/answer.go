// Package answer sends one prompt to a chat-completion backend and returns
// the assistant's text.
package answer

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/rs/zerolog/log"
    openai "github.com/sashabaranov/go-openai"

    "github.com/hyperifyio/askpage/internal/cache"
    "github.com/hyperifyio/askpage/internal/llm"
)

// SystemPrompt is the fixed system message sent ahead of every prompt.
const SystemPrompt = "You are a helpful AI assistant analyzing web content."

var (
    // ErrMissingAPIKey is returned before any network call when no key is set.
    ErrMissingAPIKey = errors.New("OpenRouter API key not set")
    // ErrInvalidResponse is returned when the backend reports no choices.
    ErrInvalidResponse = errors.New("Invalid response format from API")
    // ErrTransport wraps failures that happen before a status is received.
    ErrTransport = errors.New("chat completion failed")
)

// IsUpstream reports whether err came from the chat backend or the path to
// it, as opposed to a local failure.
func IsUpstream(err error) bool {
    var se *StatusError
    return errors.As(err, &se) || errors.Is(err, ErrInvalidResponse) || errors.Is(err, ErrTransport)
}

// StatusError is a non-success HTTP status from the backend.
type StatusError struct {
    StatusCode int
    Message    string
}

func (e *StatusError) Error() string {
    if e.Message != "" {
        return e.Message
    }
    return fmt.Sprintf("API request failed with status %d", e.StatusCode)
}

// Request is one outbound question.
type Request struct {
    Model  string
    Prompt string
    APIKey string
}

// Answerer performs exactly one chat call per Ask. There is no retry.
type Answerer struct {
    Client llm.Client
    // Cache, when set, short-circuits repeated model+prompt pairs.
    Cache *cache.AnswerCache
    // SystemPrompt, when non-empty, overrides the default system message.
    SystemPrompt string
}

// Ask sends req and returns the first choice's content.
func (a *Answerer) Ask(ctx context.Context, req Request) (string, error) {
    if strings.TrimSpace(req.APIKey) == "" {
        return "", ErrMissingAPIKey
    }
    if a.Client == nil || strings.TrimSpace(req.Model) == "" {
        return "", errors.New("answerer not configured")
    }
    system := SystemPrompt
    if strings.TrimSpace(a.SystemPrompt) != "" {
        system = a.SystemPrompt
    }

    if a.Cache != nil {
        if out, ok, _ := a.Cache.Get(ctx, req.Model, system+"\n\n"+req.Prompt); ok {
            log.Debug().Str("model", req.Model).Msg("answer cache hit")
            return out, nil
        }
    }

    resp, err := a.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
        Model: req.Model,
        Messages: []openai.ChatCompletionMessage{
            {Role: openai.ChatMessageRoleSystem, Content: system},
            {Role: openai.ChatMessageRoleUser, Content: req.Prompt},
        },
    })
    if err != nil {
        return "", mapError(err)
    }
    if len(resp.Choices) == 0 {
        return "", ErrInvalidResponse
    }
    out := resp.Choices[0].Message.Content

    if a.Cache != nil && strings.TrimSpace(out) != "" {
        if err := a.Cache.Save(ctx, req.Model, system+"\n\n"+req.Prompt, out); err != nil {
            log.Warn().Err(err).Msg("answer cache save failed")
        }
    }
    return out, nil
}

// mapError turns go-openai status errors into a StatusError carrying the
// provider's message when one was sent. Other errors are wrapped as-is.
func mapError(err error) error {
    var apiErr *openai.APIError
    if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
        return &StatusError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
    }
    var reqErr *openai.RequestError
    if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
        return &StatusError{StatusCode: reqErr.HTTPStatusCode}
    }
    return fmt.Errorf("%w: %w", ErrTransport, err)
}
