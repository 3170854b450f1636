package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is a keyed cache of T values.
type Store[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T) error
	GenerateKey(params ...interface{}) string
}

type entry[T any] struct {
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
	Checksum string    `json:"checksum"`
}

// FileCache keeps one JSON document per key under dir. An entry is a miss
// when its checksum does not match its value or when it is older than ttl
// (ttl <= 0 disables expiry).
type FileCache[T any] struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

func NewFileCache[T any](baseDir, subDir string, ttl time.Duration) *FileCache[T] {
	return &FileCache[T]{dir: filepath.Join(baseDir, subDir), ttl: ttl, now: time.Now}
}

// GenerateKey hashes the printed form of params.
func (c *FileCache[T]) GenerateKey(params ...interface{}) string {
	var b strings.Builder
	for _, p := range params {
		fmt.Fprintf(&b, "%v|", p)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (c *FileCache[T]) Get(key string) (T, bool) {
	var zero T
	raw, err := os.ReadFile(c.file(key))
	if err != nil {
		return zero, false
	}
	var e entry[T]
	if json.Unmarshal(raw, &e) != nil {
		return zero, false
	}
	if sum, err := checksum(e.Value); err != nil || sum != e.Checksum {
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(e.StoredAt) > c.ttl {
		return zero, false
	}
	return e.Value, true
}

// Set writes value atomically through a temporary file.
func (c *FileCache[T]) Set(key string, value T) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	sum, err := checksum(value)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(entry[T]{Value: value, StoredAt: c.now(), Checksum: sum})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	dst := c.file(key)
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store cache file: %w", err)
	}
	return nil
}

func (c *FileCache[T]) file(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func checksum(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache value: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
