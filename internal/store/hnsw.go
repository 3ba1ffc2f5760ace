package store

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWStore implements VectorStore using coder/hnsw, a pure-Go HNSW
// implementation (no CGO). Unlike a store fronting externally-assigned
// string identifiers, every row in this schema already carries a dense
// uint32 id (internal/ident.HashID), so the graph is keyed directly by
// that id; no separate string<->key indirection is needed.
type HNSWStore struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[uint32]
	config  VectorStoreConfig
	present map[uint32]struct{} // lazily-deleted ids are absent here but may remain in the graph
	closed  bool
}

type hnswMetadata struct {
	Present map[uint32]struct{}
	Config  VectorStoreConfig
}

// NewHNSWStore creates an HNSW-based vector store for one table.
func NewHNSWStore(cfg VectorStoreConfig) (*HNSWStore, error) {
	if cfg.Metric == "" {
		cfg.Metric = "cos"
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint32]()
	switch cfg.Metric {
	case "l2":
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWStore{
		graph:   graph,
		config:  cfg,
		present: make(map[uint32]struct{}),
	}, nil
}

// Add inserts vectors keyed by their row id. Re-adding an id uses lazy
// deletion: the old node is orphaned in the graph rather than physically
// removed, since coder/hnsw has a known issue deleting the last node.
func (s *HNSWStore) Add(ctx context.Context, ids []uint32, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}
	for _, v := range vectors {
		if len(v) != s.config.Dimensions {
			return ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(v)}
		}
	}

	for i, id := range ids {
		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		if s.config.Metric == "cos" {
			normalizeVectorInPlace(vec)
		}
		// Re-adding an existing id just overwrites the node's value at the
		// same key; coder/hnsw treats Add on an existing key as an upsert,
		// so no orphan is created in the common re-embed case.
		s.graph.Add(hnsw.MakeNode(id, vec))
		s.present[id] = struct{}{}
	}
	return nil
}

// Search returns the k nearest rows to query, skipping any id removed by
// Delete since it was added.
func (s *HNSWStore) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if len(query) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(query)}
	}
	if s.graph.Len() == 0 {
		return []*VectorResult{}, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	if s.config.Metric == "cos" {
		normalizeVectorInPlace(q)
	}

	// Over-fetch to absorb lazily-deleted ids still resident in the graph.
	nodes := s.graph.Search(q, k*2+8)
	results := make([]*VectorResult, 0, k)
	for _, node := range nodes {
		if _, ok := s.present[node.Key]; !ok {
			continue
		}
		distance := s.graph.Distance(q, node.Value)
		results = append(results, &VectorResult{
			ID:       node.Key,
			Distance: distance,
			Score:    distanceToScore(distance, s.config.Metric),
		})
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// Delete marks ids absent. The underlying graph nodes are not physically
// removed (lazy deletion).
func (s *HNSWStore) Delete(ctx context.Context, ids []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	for _, id := range ids {
		delete(s.present, id)
	}
	return nil
}

// AllIDs returns every present row id.
func (s *HNSWStore) AllIDs() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	ids := make([]uint32, 0, len(s.present))
	for id := range s.present {
		ids = append(ids, id)
	}
	return ids
}

func (s *HNSWStore) Contains(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	_, ok := s.present[id]
	return ok
}

func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return len(s.present)
}

// Save persists the graph (coder/hnsw's own binary export) and the id
// presence/config metadata, both via temp-file-then-rename.
func (s *HNSWStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := s.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return s.saveMetadata(path + ".meta")
}

func (s *HNSWStore) saveMetadata(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}
	meta := hnswMetadata{Present: s.present, Config: s.config}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close metadata file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load restores the graph and metadata written by Save.
func (s *HNSWStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	if err := s.loadMetadata(path + ".meta"); err != nil {
		if os.IsNotExist(err) {
			return nil // fresh store, nothing to load
		}
		return fmt.Errorf("load metadata: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	if err := s.graph.Import(reader); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	return nil
}

func (s *HNSWStore) loadMetadata(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			slog.Warn("failed to close hnsw metadata file", slog.String("error", cerr.Error()))
		}
	}()

	var meta hnswMetadata
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return fmt.Errorf("decode hnsw metadata: %w", err)
	}
	s.present = meta.Present
	s.config = meta.Config
	return nil
}

func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return nil
}

func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}

// distanceToScore converts a distance into a [0,1]-ish similarity score.
func distanceToScore(distance float32, metric string) float32 {
	switch metric {
	case "l2":
		return 1.0 / (1.0 + distance)
	default: // cosine distance ranges 0 (identical) to 2 (opposite)
		return 1.0 - distance/2.0
	}
}
