package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/askpage/internal/answer"
	"github.com/hyperifyio/askpage/internal/budget"
	"github.com/hyperifyio/askpage/internal/features"
	"github.com/hyperifyio/askpage/internal/llm"
	"github.com/hyperifyio/askpage/internal/prompt"
	"github.com/hyperifyio/askpage/internal/store"
)

// Settings returns the stored settings.
func (a *App) Settings(ctx context.Context) (store.Settings, error) {
	return store.LoadSettings(ctx, a.store)
}

// SaveSettings stores st. An empty model falls back to the configured one.
func (a *App) SaveSettings(ctx context.Context, st store.Settings) error {
	st.Model = strings.TrimSpace(st.Model)
	if st.Model == "" {
		st.Model = a.cfg.LLMModel
	}
	return store.SaveSettings(ctx, a.store, st)
}

// apiKey prefers the key saved in settings over the configured one.
func (a *App) apiKey(st store.Settings) string {
	if k := strings.TrimSpace(st.OpenRouterKey); k != "" {
		return k
	}
	return strings.TrimSpace(a.cfg.LLMAPIKey)
}

func (a *App) answerer(key string) *answer.Answerer {
	return &answer.Answerer{Client: a.newClient(key), Cache: a.answers, SystemPrompt: a.cfg.SystemPrompt}
}

// Ask answers question about the current selection and records both sides
// of the exchange in the conversation. It returns the assistant's turn.
func (a *App) Ask(ctx context.Context, question string) (store.Turn, error) {
	st, err := a.Settings(ctx)
	if err != nil {
		return store.Turn{}, fmt.Errorf("load settings: %w", err)
	}
	key := a.apiKey(st)
	if key == "" {
		return store.Turn{}, answer.ErrMissingAPIKey
	}
	pc, err := a.CurrentContext(ctx)
	if err != nil {
		return store.Turn{}, fmt.Errorf("load context: %w", err)
	}

	p := prompt.Build(question, pc)
	if tokens := budget.EstimateTokens(p); budget.RemainingContext(st.Model, a.cfg.ReservedOutputTokens, tokens) == 0 {
		log.Warn().Int("promptTokens", tokens).Str("model", st.Model).Msg("prompt may exceed the model context window")
	}
	text, err := a.answerer(key).Ask(ctx, answer.Request{
		Model:  st.Model,
		Prompt: p,
		APIKey: key,
	})
	if err != nil {
		log.Error().Err(err).Str("model", st.Model).Msg("answer failed")
		return store.Turn{}, err
	}

	a.summarizer.SetEnabled(st.Features.Summarization)
	a.citations.SetEnabled(st.Features.Citations)
	text, err = features.Apply(ctx, text, pc, a.summarizer, a.citations)
	if err != nil {
		return store.Turn{}, err
	}

	user := store.NewTurn(store.RoleUser, question)
	reply := store.NewTurn(store.RoleAssistant, text)
	reply.Model = st.Model
	a.convMu.Lock()
	err = store.AppendTurn(ctx, a.store, user, reply)
	a.convMu.Unlock()
	if err != nil {
		log.Warn().Err(err).Msg("conversation not saved")
	}
	return reply, nil
}

// CompareModels lists the models offered for comparison: the configured
// list, else the provider's catalog when the client can list models, else
// the built-in defaults.
func (a *App) CompareModels(ctx context.Context) []string {
	defaults := (&features.ModelComparer{Models: a.cfg.CompareModels}).AvailableModels()
	if len(a.cfg.CompareModels) > 0 {
		return defaults
	}
	st, err := a.Settings(ctx)
	if err != nil {
		return defaults
	}
	key := a.apiKey(st)
	if key == "" {
		return defaults
	}
	lister, ok := a.newClient(key).(llm.ModelLister)
	if !ok {
		return defaults
	}
	list, err := lister.ListModels(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("model listing failed; using defaults")
		return defaults
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return defaults
	}
	return ids
}

// Compare asks each of models (all offered models when empty) the same
// question about the current selection.
func (a *App) Compare(ctx context.Context, question string, models []string) ([]features.Comparison, error) {
	st, err := a.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	key := a.apiKey(st)
	if st.Features.ModelCompare && key == "" {
		return nil, answer.ErrMissingAPIKey
	}
	pc, err := a.CurrentContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}
	ans := a.answerer(key)
	mc := &features.ModelComparer{
		Models:      a.cfg.CompareModels,
		Concurrency: a.cfg.CompareConcurrency,
		Ask: func(ctx context.Context, model, p string) (string, error) {
			return ans.Ask(ctx, answer.Request{Model: model, Prompt: p, APIKey: key})
		},
	}
	mc.SetEnabled(st.Features.ModelCompare)
	return mc.Compare(ctx, prompt.Build(question, pc), models)
}

// Export renders the conversation in format and returns its MIME type.
func (a *App) Export(ctx context.Context, format string) ([]byte, string, error) {
	st, err := a.Settings(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load settings: %w", err)
	}
	a.exporter.SetEnabled(st.Features.Export)
	conv, err := store.LoadConversation(ctx, a.store)
	if err != nil {
		return nil, "", fmt.Errorf("load conversation: %w", err)
	}
	out, err := a.exporter.Export(conv, format)
	if err != nil {
		return nil, "", err
	}
	return out, features.ContentType(format), nil
}

// Conversation returns the stored turns.
func (a *App) Conversation(ctx context.Context) ([]store.Turn, error) {
	return store.LoadConversation(ctx, a.store)
}

// ClearConversation drops the stored turns and tracked citations.
func (a *App) ClearConversation(ctx context.Context) error {
	a.convMu.Lock()
	defer a.convMu.Unlock()
	a.citations.Clear()
	return store.ClearConversation(ctx, a.store)
}

// Citations returns the citations recorded while the feature was enabled.
func (a *App) Citations() []features.Citation {
	return a.citations.Citations()
}
