package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/askpage/internal/extract"
)

// Well-known keys.
const (
	KeySettings         = "settings"
	KeyPageContext      = "pageContext"
	KeyCurrentSelection = "currentSelection"
	KeyConversation     = "conversation"
)

// DefaultModel is used when settings name no model.
const DefaultModel = "openai/gpt-3.5-turbo"

// Features toggles the optional answer capabilities.
type Features struct {
	Summarization bool `json:"summarization"`
	ModelCompare  bool `json:"modelCompare"`
	Citations     bool `json:"citations"`
	Export        bool `json:"export"`
}

// Settings are the user's persisted preferences.
type Settings struct {
	OpenRouterKey string   `json:"openrouterKey"`
	Model         string   `json:"model"`
	Features      Features `json:"features"`
}

// Selection is the most recent selection the user made.
type Selection struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	TabID int    `json:"tabId"`
}

// Turn is one message of the conversation.
type Turn struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Roles used in turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// NewTurn returns a turn with a fresh ID and the current time.
func NewTurn(role, content string) Turn {
	return Turn{ID: uuid.NewString(), Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// LoadSettings returns stored settings, or defaults when none were saved.
// An empty model is replaced by DefaultModel.
func LoadSettings(ctx context.Context, s Store) (Settings, error) {
	var st Settings
	if err := s.Get(ctx, KeySettings, &st); err != nil && !errors.Is(err, ErrNotFound) {
		return Settings{}, err
	}
	if st.Model == "" {
		st.Model = DefaultModel
	}
	return st, nil
}

func SaveSettings(ctx context.Context, s Store, st Settings) error {
	return s.Put(ctx, KeySettings, st)
}

func SavePageContext(ctx context.Context, s Store, pc *extract.PageContext) error {
	return s.Put(ctx, KeyPageContext, pc)
}

// LoadPageContext returns nil without error when no context was stored.
func LoadPageContext(ctx context.Context, s Store) (*extract.PageContext, error) {
	var pc extract.PageContext
	if err := s.Get(ctx, KeyPageContext, &pc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pc, nil
}

func SaveSelection(ctx context.Context, s Store, sel Selection) error {
	return s.Put(ctx, KeyCurrentSelection, sel)
}

// LoadSelection returns nil without error when no selection was stored.
func LoadSelection(ctx context.Context, s Store) (*Selection, error) {
	var sel Selection
	if err := s.Get(ctx, KeyCurrentSelection, &sel); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sel, nil
}

// AppendTurn adds turns to the stored conversation. Callers serialize
// concurrent appends.
func AppendTurn(ctx context.Context, s Store, turns ...Turn) error {
	conv, err := LoadConversation(ctx, s)
	if err != nil {
		return err
	}
	return s.Put(ctx, KeyConversation, append(conv, turns...))
}

// LoadConversation returns the stored turns, empty when none.
func LoadConversation(ctx context.Context, s Store) ([]Turn, error) {
	var conv []Turn
	if err := s.Get(ctx, KeyConversation, &conv); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return conv, nil
}

func ClearConversation(ctx context.Context, s Store) error {
	return s.Delete(ctx, KeyConversation)
}
