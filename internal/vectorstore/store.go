// Package vectorstore is seekr's persistent approximate-nearest-neighbor
// index over code-chunk embeddings, per SPEC_FULL.md §4.3: an HNSW graph
// with M=16 and efSearch=64, backed by github.com/coder/hnsw, persisted as
// "vectors.idx" + "metadata.json". coder/hnsw has no efConstruction
// setting, so no construction-time candidate list size is applied.
package vectorstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

const (
	// M is the HNSW connectivity parameter (SPEC_FULL §4.3).
	M = 16
	// EfConstruction records the configured construction-time candidate
	// list size. coder/hnsw has no such setting and newGraph does not use
	// this constant; the level-generation factor Ml is set to 0.25 on its own.
	EfConstruction = 128
	// EfSearch is the HNSW expansion-search parameter (SPEC_FULL §4.3).
	EfSearch = 64

	// VectorsFileName is the ANN graph artifact.
	VectorsFileName = "vectors.idx"
	// MetadataFileName stores one JSON object per vector key, in key order.
	MetadataFileName = "metadata.json"

	// reserveStep is the minimum capacity growth per reserve (SPEC_FULL
	// §4.3: "max(current_capacity+1000, 1000)").
	reserveStep = 1000
)

// ChunkMetadata is stored alongside each vector, one per key.
type ChunkMetadata struct {
	FilePath   string `json:"file_path"`
	Language   string `json:"language"`
	ChunkType  string `json:"chunk_type"`
	Name       string `json:"name"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Content    string `json:"content"`
	Tombstoned bool   `json:"tombstoned"`
}

// Result is one ranked hit from Search.
type Result struct {
	Key      int
	Score    float64
	Metadata ChunkMetadata
}

// Store is seekr's VectorStore: a cosine-distance HNSW graph plus an
// append-only parallel metadata slice, where a vector's key always equals
// its metadata's index.
type Store struct {
	mu       sync.RWMutex
	baseDir  string
	dims     int
	graph    *hnsw.Graph[int]
	metadata []ChunkMetadata
	capacity int
	closed   bool
}

// Open ensures baseDir exists and returns a Store configured for vectors of
// dimension d, loading "vectors.idx"/"metadata.json" if present.
func Open(baseDir string, d int) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("vectorstore: creating base dir: %w", err)
	}

	s := &Store{
		baseDir: baseDir,
		dims:    d,
		graph:   newGraph(),
	}

	if err := s.loadMetadata(); err != nil {
		return nil, fmt.Errorf("vectorstore: loading metadata: %w", err)
	}
	if err := s.loadGraph(); err != nil {
		return nil, fmt.Errorf("vectorstore: loading graph: %w", err)
	}

	s.capacity = len(s.metadata)
	return s, nil
}

func newGraph() *hnsw.Graph[int] {
	g := hnsw.NewGraph[int]()
	g.M = M
	g.EfSearch = EfSearch
	g.Ml = 0.25
	g.Distance = hnsw.CosineDistance
	return g
}

func (s *Store) loadMetadata() error {
	path := filepath.Join(s.baseDir, MetadataFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.metadata = nil
			return nil
		}
		return err
	}

	var meta []ChunkMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		s.metadata = nil
		return nil
	}
	s.metadata = meta
	return nil
}

func (s *Store) loadGraph() error {
	path := filepath.Join(s.baseDir, VectorsFileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	return s.graph.Import(bufio.NewReader(f))
}

// Dimensions reports the fixed vector dimension.
func (s *Store) Dimensions() int {
	return s.dims
}

// Add inserts vector with its metadata, returning the assigned key, which
// equals the metadata's index (SPEC_FULL §4.3's invariant).
func (s *Store) Add(vector []float32, meta ChunkMetadata) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("vectorstore: store is closed")
	}
	if len(vector) != s.dims {
		return 0, fmt.Errorf("vectorstore: dimension mismatch: expected %d, got %d", s.dims, len(vector))
	}

	key := len(s.metadata)
	if key >= s.capacity {
		grow := s.capacity + reserveStep
		if grow < reserveStep {
			grow = reserveStep
		}
		s.capacity = grow
	}

	vec := make([]float32, len(vector))
	copy(vec, vector)
	normalize(vec)

	s.graph.Add(hnsw.MakeNode(key, vec))
	s.metadata = append(s.metadata, meta)

	return key, nil
}

// Search returns up to limit nearest neighbors to q, best first, skipping
// tombstoned metadata and over-fetching to compensate.
func (s *Store) Search(q []float32, limit int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vectorstore: store is closed")
	}
	if len(q) != s.dims {
		return nil, fmt.Errorf("vectorstore: dimension mismatch: expected %d, got %d", s.dims, len(q))
	}
	if s.graph.Len() == 0 {
		return nil, nil
	}

	query := make([]float32, len(q))
	copy(query, q)
	normalize(query)

	// Over-fetch to compensate for tombstoned hits being filtered out.
	fetch := limit * 3
	if fetch < limit+10 {
		fetch = limit + 10
	}

	nodes := s.graph.Search(query, fetch)

	results := make([]Result, 0, limit)
	for _, node := range nodes {
		key := node.Key
		if key < 0 || key >= len(s.metadata) {
			continue
		}
		meta := s.metadata[key]
		if meta.Tombstoned {
			continue
		}

		distance := s.graph.Distance(query, node.Value)
		results = append(results, Result{
			Key:      key,
			Score:    1.0 - float64(distance),
			Metadata: meta,
		})

		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

// TombstoneByPath marks every non-tombstoned metadata entry for filePath as
// tombstoned, so a subsequent Search skips stale chunks from a prior
// version of that file without needing graph deletion.
func (s *Store) TombstoneByPath(filePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.metadata {
		if s.metadata[i].FilePath == filePath {
			s.metadata[i].Tombstoned = true
		}
	}
}

// Len reports the number of metadata entries (including tombstoned ones).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.metadata)
}

// Save writes the ANN graph to vectors.idx and metadata to metadata.json,
// each via write-to-tmp-then-rename.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("vectorstore: store is closed")
	}

	if err := s.saveGraph(); err != nil {
		return fmt.Errorf("vectorstore: saving graph: %w", err)
	}
	if err := s.saveMetadata(); err != nil {
		return fmt.Errorf("vectorstore: saving metadata: %w", err)
	}
	return nil
}

func (s *Store) saveGraph() error {
	path := filepath.Join(s.baseDir, VectorsFileName)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := s.graph.Export(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) saveMetadata() error {
	path := filepath.Join(s.baseDir, MetadataFileName)
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(s.metadata, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Clear discards in-memory state and deletes both persisted files.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph = newGraph()
	s.metadata = nil
	s.capacity = 0

	for _, name := range []string{VectorsFileName, MetadataFileName} {
		path := filepath.Join(s.baseDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("vectorstore: clearing %s: %w", name, err)
		}
	}
	return nil
}

// Close releases the store. Further use is an error.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func normalize(v []float32) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
