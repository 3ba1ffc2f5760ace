package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
)

// DefaultStageCacheTTL is how long a pending LLM result survives before a
// sweep reclaims it.
const DefaultStageCacheTTL = 7 * 24 * time.Hour

// StageEntry is the durable checkpoint written before any store mutation:
// the LLM's concept extraction and summary for one document, keyed by its
// content hash so a resumed run can skip straight to persistence without
// re-issuing the call.
type StageEntry struct {
	ContentHash string             `json:"content_hash"`
	SourcePath  string             `json:"source_path"`
	Summary     string             `json:"summary"`
	Chunks      []string           `json:"chunks"`
	Concepts    []ConceptExtraction `json:"concepts"` // one per chunk, same order
	WrittenAt   time.Time          `json:"written_at"`
}

// StageCache persists pending LLM results to <dir>/<content-hash>.json via
// atomic tmp+rename, guarded by a cross-process gofrs/flock lock on
// <dir>/.lock so two concurrent `seed` runs against the same data root
// never interleave writes.
type StageCache struct {
	dir  string
	lock *flock.Flock
	ttl  time.Duration
}

// NewStageCache opens a stage cache rooted at dir, creating it if absent.
func NewStageCache(dir string, ttl time.Duration) (*StageCache, error) {
	if ttl <= 0 {
		ttl = DefaultStageCacheTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Document(errs.CodeDocParse, "create stage cache directory", err)
	}
	return &StageCache{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".lock")),
		ttl:  ttl,
	}, nil
}

func (c *StageCache) path(contentHash string) string {
	return filepath.Join(c.dir, contentHash+".json")
}

// Get returns the cached entry for contentHash, if present and not
// expired under the cache's TTL.
func (c *StageCache) Get(contentHash string) (StageEntry, bool, error) {
	data, err := os.ReadFile(c.path(contentHash))
	if os.IsNotExist(err) {
		return StageEntry{}, false, nil
	}
	if err != nil {
		return StageEntry{}, false, errs.Document(errs.CodeDocParse, "read stage cache entry", err)
	}

	var entry StageEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return StageEntry{}, false, errs.Document(errs.CodeDocParse, "decode stage cache entry", err)
	}
	if time.Since(entry.WrittenAt) > c.ttl {
		return StageEntry{}, false, nil
	}
	return entry, true, nil
}

// Put writes entry for contentHash using an exclusive lock plus atomic
// tmp+rename, so a crash mid-write never leaves a corrupt entry behind.
func (c *StageCache) Put(entry StageEntry) error {
	if err := c.lock.Lock(); err != nil {
		return errs.Document(errs.CodeDocParse, "acquire stage cache lock", err)
	}
	defer c.lock.Unlock()

	entry.WrittenAt = time.Now()
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return errs.Document(errs.CodeDocParse, "encode stage cache entry", err)
	}

	final := c.path(entry.ContentHash)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Document(errs.CodeDocParse, "write stage cache temp file", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return errs.Document(errs.CodeDocParse, "rename stage cache temp file", err)
	}
	return nil
}

// Clear removes every entry in the cache, regardless of age (CLI flag
// --clear-cache). Returns the count removed.
func (c *StageCache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, errs.Document(errs.CodeDocParse, "list stage cache directory", err)
	}
	removed := 0
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, de.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Sweep deletes every entry older than the cache's TTL relative to now,
// returning the count removed. Run once on orchestrator start.
func (c *StageCache) Sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, errs.Document(errs.CodeDocParse, "list stage cache directory", err)
	}

	removed := 0
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		full := filepath.Join(c.dir, de.Name())
		info, err := de.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > c.ttl {
			if err := os.Remove(full); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
