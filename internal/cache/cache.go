package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/programme-lv/itester/api"
	"github.com/programme-lv/itester/internal/xdg"
)

// ErrNotFound is returned by Load when no entry exists for the key.
var ErrNotFound = errors.New("cache entry not found")

// Entry is the last summary stored for one task directory.
type Entry struct {
	Key     string      `json:"key"`
	Stored  time.Time   `json:"stored"`
	Summary api.Summary `json:"summary"`
}

// Cache keeps one zstd compressed JSON file per task directory.
type Cache struct {
	dir string
}

func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Open uses the application cache directory, creating it if needed.
func Open(dirs xdg.Dirs) (*Cache, error) {
	dir, err := dirs.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return New(dir), nil
}

func (c *Cache) Dir() string { return c.dir }

// Key identifies a task directory independently of the working directory.
func Key(taskDir string) string {
	abs, err := filepath.Abs(taskDir)
	if err != nil {
		abs = filepath.Clean(taskDir)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json.zst")
}

// Store replaces the entry of key. The file is written to a temporary
// name first so readers never see a partial entry.
func (c *Cache) Store(key string, summary api.Summary) error {
	data, err := json.Marshal(Entry{Key: key, Stored: time.Now().UTC(), Summary: summary})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	return os.Rename(tmp.Name(), c.path(key))
}

func (c *Cache) Load(key string) (Entry, error) {
	f, err := os.Open(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	defer f.Close()

	d, err := zstd.NewReader(f)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer d.Close()

	var e Entry
	if err := json.NewDecoder(d).Decode(&e); err != nil {
		return Entry{}, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return e, nil
}
