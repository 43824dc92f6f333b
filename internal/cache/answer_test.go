package cache

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "testing"
    "time"
)

func TestAnswerCache_SaveGet(t *testing.T) {
    c := &AnswerCache{Dir: t.TempDir()}
    ctx := context.Background()
    if err := c.Save(ctx, "model", "prompt", "the answer"); err != nil {
        t.Fatalf("save: %v", err)
    }
    got, ok, err := c.Get(ctx, "model", "prompt")
    if err != nil || !ok {
        t.Fatalf("get: %v ok=%v", err, ok)
    }
    if got != "the answer" {
        t.Fatalf("got %q", got)
    }
    if _, ok, _ := c.Get(ctx, "other-model", "prompt"); ok {
        t.Fatalf("different model must miss")
    }
}

func TestAnswerCache_MalformedEntryMisses(t *testing.T) {
    dir := t.TempDir()
    c := &AnswerCache{Dir: dir}
    if err := os.WriteFile(filepath.Join(dir, KeyFrom("m", "p")+".json"), []byte("{"), 0o644); err != nil {
        t.Fatal(err)
    }
    if _, ok, err := c.Get(context.Background(), "m", "p"); ok || err != nil {
        t.Fatalf("malformed entry should miss quietly, ok=%v err=%v", ok, err)
    }
}

func TestAnswerCache_UnconfiguredDir(t *testing.T) {
    var c *AnswerCache
    if _, _, err := c.Get(context.Background(), "m", "p"); err == nil {
        t.Fatalf("expected error for nil cache")
    }
}

func TestAnswerCache_LRUEnforcement(t *testing.T) {
    dir := t.TempDir()
    c := &AnswerCache{Dir: dir}
    ctx := context.Background()
    base := time.Now().Add(-time.Hour)
    for i := 0; i < 3; i++ {
        p := fmt.Sprintf("p%d", i)
        if err := c.Save(ctx, "m", p, fmt.Sprintf("a%d", i)); err != nil {
            t.Fatalf("save %d: %v", i, err)
        }
        mt := base.Add(time.Duration(i) * time.Minute)
        if err := os.Chtimes(filepath.Join(dir, KeyFrom("m", p)+".json"), mt, mt); err != nil {
            t.Fatal(err)
        }
    }
    // Touch p0 so it becomes most recently used.
    if _, ok, _ := c.Get(ctx, "m", "p0"); !ok {
        t.Fatal("expected hit")
    }
    removed, err := EnforceLimits(dir, 2)
    if err != nil {
        t.Fatalf("enforce: %v", err)
    }
    if removed != 1 {
        t.Fatalf("expected 1 removed, got %d", removed)
    }
    if _, ok, _ := c.Get(ctx, "m", "p1"); ok {
        t.Fatal("expected least recently used entry evicted")
    }
    if _, ok, _ := c.Get(ctx, "m", "p0"); !ok {
        t.Fatal("touched entry must survive")
    }
}

func TestAnswerCache_SaveEnforcesMaxEntries(t *testing.T) {
    dir := t.TempDir()
    c := &AnswerCache{Dir: dir, MaxEntries: 2}
    ctx := context.Background()
    base := time.Now().Add(-time.Hour)
    for i := 0; i < 2; i++ {
        p := fmt.Sprintf("p%d", i)
        if err := c.Save(ctx, "m", p, "a"); err != nil {
            t.Fatalf("save %d: %v", i, err)
        }
        mt := base.Add(time.Duration(i) * time.Minute)
        if err := os.Chtimes(filepath.Join(dir, KeyFrom("m", p)+".json"), mt, mt); err != nil {
            t.Fatal(err)
        }
    }
    if err := c.Save(ctx, "m", "p2", "a"); err != nil {
        t.Fatalf("save: %v", err)
    }
    entries, err := os.ReadDir(dir)
    if err != nil {
        t.Fatal(err)
    }
    if len(entries) != 2 {
        t.Fatalf("expected 2 entries after save, got %d", len(entries))
    }
    if _, ok, _ := c.Get(ctx, "m", "p0"); ok {
        t.Fatal("oldest entry should have been evicted")
    }
    if _, ok, _ := c.Get(ctx, "m", "p2"); !ok {
        t.Fatal("newest entry must survive")
    }
}

func TestPurgeByAge(t *testing.T) {
    dir := t.TempDir()
    c := &AnswerCache{Dir: dir}
    ctx := context.Background()
    _ = c.Save(ctx, "m", "old", "x")
    _ = c.Save(ctx, "m", "new", "y")
    old := time.Now().Add(-48 * time.Hour)
    if err := os.Chtimes(filepath.Join(dir, KeyFrom("m", "old")+".json"), old, old); err != nil {
        t.Fatal(err)
    }
    removed, err := PurgeByAge(dir, 24*time.Hour)
    if err != nil || removed != 1 {
        t.Fatalf("removed=%d err=%v", removed, err)
    }
    if n, _ := PurgeByAge(dir, 0); n != 0 {
        t.Fatalf("zero maxAge must be a no-op")
    }
    if n, err := PurgeByAge(filepath.Join(dir, "missing"), time.Hour); n != 0 || err != nil {
        t.Fatalf("missing dir: n=%d err=%v", n, err)
    }
}

func TestClearDir(t *testing.T) {
    dir := filepath.Join(t.TempDir(), "answers")
    c := &AnswerCache{Dir: dir}
    _ = c.Save(context.Background(), "m", "p", "a")
    if err := ClearDir(dir); err != nil {
        t.Fatalf("clear: %v", err)
    }
    entries, err := os.ReadDir(dir)
    if err != nil || len(entries) != 0 {
        t.Fatalf("expected empty dir, got %d entries err=%v", len(entries), err)
    }
    if err := ClearDir("  "); err == nil {
        t.Fatalf("blank dir must be rejected")
    }
}
