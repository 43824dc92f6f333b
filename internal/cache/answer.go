package cache

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"
)

// AnswerCache stores model answers on disk keyed by a digest of model and
// prompt, one JSON file per entry.
type AnswerCache struct {
    Dir string
    // StrictPerms, when true, enforces 0700 on the directory and 0600 on files.
    StrictPerms bool
    // MaxEntries caps the number of stored answers; least recently used
    // entries are evicted after each save. Zero means unlimited.
    MaxEntries int
}

type answerEntry struct {
    Model   string    `json:"model"`
    Answer  string    `json:"answer"`
    SavedAt time.Time `json:"savedAt"`
}

// KeyFrom builds a cache key from model and prompt.
func KeyFrom(model string, prompt string) string {
    h := sha256.Sum256([]byte(model + "\n\n" + prompt))
    return hex.EncodeToString(h[:])
}

func (c *AnswerCache) ensureDir() error {
    if c == nil || c.Dir == "" {
        return errors.New("cache dir not configured")
    }
    perm := os.FileMode(0o755)
    if c.StrictPerms {
        perm = 0o700
    }
    if err := os.MkdirAll(c.Dir, perm); err != nil {
        return err
    }
    if c.StrictPerms {
        if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
            _ = os.Chmod(c.Dir, 0o700)
        }
    }
    return nil
}

func (c *AnswerCache) pathFor(key string) string {
    return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached answer for model and prompt. A miss or an
// unreadable entry reports ok=false without error.
func (c *AnswerCache) Get(_ context.Context, model, prompt string) (string, bool, error) {
    if err := c.ensureDir(); err != nil {
        return "", false, err
    }
    p := c.pathFor(KeyFrom(model, prompt))
    b, err := os.ReadFile(p)
    if err != nil {
        return "", false, nil
    }
    var e answerEntry
    if err := json.Unmarshal(b, &e); err != nil || strings.TrimSpace(e.Answer) == "" {
        return "", false, nil
    }
    // Touch mtime on access for LRU eviction.
    now := time.Now()
    _ = os.Chtimes(p, now, now)
    return e.Answer, true, nil
}

// Save stores answer for model and prompt.
func (c *AnswerCache) Save(_ context.Context, model, prompt, answer string) error {
    if err := c.ensureDir(); err != nil {
        return err
    }
    data, err := json.Marshal(answerEntry{Model: model, Answer: answer, SavedAt: time.Now().UTC()})
    if err != nil {
        return err
    }
    mode := os.FileMode(0o644)
    if c.StrictPerms {
        mode = 0o600
    }
    if err := os.WriteFile(c.pathFor(KeyFrom(model, prompt)), data, mode); err != nil {
        return err
    }
    if _, err := EnforceLimits(c.Dir, c.MaxEntries); err != nil {
        return fmt.Errorf("enforce limits: %w", err)
    }
    return nil
}
