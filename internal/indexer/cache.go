package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

const cacheIndexVersion = 2

type cacheEntry struct {
	ContentHash      string `json:"content_hash"`
	ModelPath        string `json:"model_path"`
	ParserVersion    string `json:"parser_version"`
	ExtractorVersion string `json:"extractor_version"`
}

type cacheIndex struct {
	Version int                   `json:"version"`
	Entries map[string]cacheEntry `json:"entries"`
}

// modelCache keeps the extracted model of each file, keyed by path and
// invalidated by content hash or a parser/extractor version change. The
// index is JSON; the models themselves are msgpack.
type modelCache struct {
	dir      string
	versions cacheVersions
	mu       sync.Mutex
	index    cacheIndex
}

func newModelCache(dir string, versions cacheVersions) *modelCache {
	return &modelCache{
		dir:      dir,
		versions: versions,
		index: cacheIndex{
			Version: cacheIndexVersion,
			Entries: make(map[string]cacheEntry),
		},
	}
}

func (c *modelCache) indexPath() string {
	return filepath.Join(c.dir, "index.json")
}

func (c *modelCache) modelPathForFile(filePath string) string {
	h := sha256.Sum256([]byte(filePath))
	return filepath.Join(c.dir, "models", hex.EncodeToString(h[:])+".msgpack")
}

func (c *modelCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("cache mkdir: %w", err)
	}
	data, err := os.ReadFile(c.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache index: %w", err)
	}
	var idx cacheIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("parse cache index: %w", err)
	}
	if idx.Version != cacheIndexVersion {
		// Start over on version mismatch
		return nil
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]cacheEntry)
	}
	c.index = idx
	return nil
}

func (c *modelCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache index: %w", err)
	}
	return writeFileAtomic(c.indexPath(), data)
}

// Get returns the cached model of filePath when its content hash and the
// versions that produced it still match.
func (c *modelCache) Get(filePath, contentHash string) (model.File, bool, error) {
	c.mu.Lock()
	entry, ok := c.index.Entries[filePath]
	c.mu.Unlock()
	if !ok || entry.ContentHash != contentHash {
		return model.File{}, false, nil
	}
	if entry.ParserVersion != c.versions.parser || entry.ExtractorVersion != c.versions.extractor {
		return model.File{}, false, nil
	}

	data, err := os.ReadFile(entry.ModelPath)
	if err != nil {
		return model.File{}, false, fmt.Errorf("read cached model: %w", err)
	}
	var f model.File
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return model.File{}, false, fmt.Errorf("decode cached model: %w", err)
	}
	return f, true, nil
}

func (c *modelCache) Put(filePath, contentHash string, f model.File) error {
	data, err := msgpack.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encode cached model: %w", err)
	}
	modelPath := c.modelPathForFile(filePath)
	if err := writeFileAtomic(modelPath, data); err != nil {
		return err
	}

	c.mu.Lock()
	c.index.Entries[filePath] = cacheEntry{
		ContentHash:      contentHash,
		ModelPath:        modelPath,
		ParserVersion:    c.versions.parser,
		ExtractorVersion: c.versions.extractor,
	}
	c.mu.Unlock()
	return nil
}

// Prune drops index entries for files that are no longer part of the
// project, along with their model files.
func (c *modelCache) Prune(keep map[string]bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for path, entry := range c.index.Entries {
		if keep[path] {
			continue
		}
		_ = os.Remove(entry.ModelPath)
		delete(c.index.Entries, path)
		removed++
	}
	return removed
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
