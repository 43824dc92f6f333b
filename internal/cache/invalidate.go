package cache

import (
    "errors"
    "io/fs"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"
)

// ClearDir removes the directory and all contents, then recreates it empty.
func ClearDir(dir string) error {
    if strings.TrimSpace(dir) == "" {
        return errors.New("empty dir")
    }
    if err := os.RemoveAll(dir); err != nil {
        return err
    }
    return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes answer entries whose modification time is older than
// maxAge. A non-positive maxAge is a no-op.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
    if maxAge <= 0 {
        return 0, nil
    }
    entries, err := listEntries(dir)
    if err != nil {
        return 0, err
    }
    now := time.Now()
    removed := 0
    for _, e := range entries {
        if now.Sub(e.modTime) <= maxAge {
            continue
        }
        if os.Remove(e.path) == nil {
            removed++
        }
    }
    return removed, nil
}

// EnforceLimits evicts least recently used answer entries until at most
// maxCount remain. Zero means unlimited.
func EnforceLimits(dir string, maxCount int) (int, error) {
    if maxCount <= 0 {
        return 0, nil
    }
    entries, err := listEntries(dir)
    if err != nil {
        return 0, err
    }
    if len(entries) <= maxCount {
        return 0, nil
    }
    sort.Slice(entries, func(i, j int) bool { return entries[i].modTime.Before(entries[j].modTime) })
    removed := 0
    for _, e := range entries[:len(entries)-maxCount] {
        if os.Remove(e.path) == nil {
            removed++
        }
    }
    return removed, nil
}

type fileEntry struct {
    path    string
    modTime time.Time
}

func listEntries(dir string) ([]fileEntry, error) {
    var out []fileEntry
    err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
        if err != nil {
            return err
        }
        if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
            return nil
        }
        info, err := d.Info()
        if err != nil {
            return nil // skip entries removed mid-walk
        }
        out = append(out, fileEntry{path: path, modTime: info.ModTime()})
        return nil
    })
    if errors.Is(err, fs.ErrNotExist) {
        return nil, nil
    }
    return out, err
}
