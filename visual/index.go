package visual

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/MisbahAN/ChatVid-AI/config"
	"github.com/MisbahAN/ChatVid-AI/core"
	"github.com/MisbahAN/ChatVid-AI/llm"
)

// FrameIndex holds enriched frames keyed by request and answers
// nearest-neighbor queries against their embeddings. Every operation
// carries the request's job ID so concurrent searches never see each
// other's frames; Replace swaps that one request's frame set and Drop
// discards it once the request is answered.
type FrameIndex interface {
	Replace(ctx context.Context, jobID string, frames []core.Frame) (int, error)
	Search(ctx context.Context, jobID string, queryVec []float32) (core.SearchResult, error)
	Drop(ctx context.Context, jobID string) error
}

// NewFrameIndex selects the index backend from the STORE environment
// variable: "pgvector", "milvus", or the default in-memory scan. A
// backend that fails to initialize falls back to memory.
func NewFrameIndex(cfg *config.Config) FrameIndex {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("STORE"))) {
	case "pgvector":
		idx, err := newPgVectorFrameIndex(cfg)
		if err != nil {
			log.Printf("Warning: pgvector frame index unavailable (%v), falling back to memory", err)
			return NewMemoryFrameIndex()
		}
		return idx
	case "milvus":
		idx, err := newMilvusFrameIndex()
		if err != nil {
			log.Printf("Warning: milvus frame index unavailable (%v), falling back to memory", err)
			return NewMemoryFrameIndex()
		}
		return idx
	default:
		return NewMemoryFrameIndex()
	}
}

// SemanticSearch embeds the query and returns the closest frame. A
// query-embedding failure aborts the search with an empty result;
// there is no fallback frame to return. An index error (such as an
// embedding dimension mismatch, which is a defect) propagates.
func SemanticSearch(ctx context.Context, client llm.Client, index FrameIndex, jobID, query string) (core.SearchResult, error) {
	log.Printf("Visual search for: %s", query)
	queryVec, err := client.Embed(ctx, query)
	if err != nil {
		log.Printf("Error embedding query: %v", err)
		return core.SearchResult{}, nil
	}
	return index.Search(ctx, jobID, queryVec)
}

// ---------------- Memory implementation (default) ----------------

// MemoryFrameIndex is the default backend: an exhaustive cosine scan
// over each request's frame set, keyed by job ID. The per-request set
// size is bounded by duration over sampling interval, so linear search
// is fine.
type MemoryFrameIndex struct {
	mu     sync.RWMutex
	frames map[string][]core.Frame
}

func NewMemoryFrameIndex() *MemoryFrameIndex {
	return &MemoryFrameIndex{frames: make(map[string][]core.Frame)}
}

func (m *MemoryFrameIndex) Replace(_ context.Context, jobID string, frames []core.Frame) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames[jobID] = append([]core.Frame(nil), frames...)
	count := 0
	for _, f := range frames {
		if f.Embedding != nil {
			count++
		}
	}
	return count, nil
}

func (m *MemoryFrameIndex) Search(_ context.Context, jobID string, queryVec []float32) (core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best core.SearchResult
	for _, f := range m.frames[jobID] {
		if f.Embedding == nil {
			continue
		}
		score, err := cosineSimilarity(queryVec, f.Embedding)
		if err != nil {
			return core.SearchResult{}, fmt.Errorf("frame at %ds: %w", f.TimestampSec, err)
		}
		// Strict greater: exact ties keep the earlier frame.
		if !best.Found || score > best.Score {
			best = core.SearchResult{
				TimestampSec: f.TimestampSec,
				Score:        score,
				Description:  f.Description,
				Found:        true,
			}
		}
	}
	return best, nil
}

func (m *MemoryFrameIndex) Drop(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.frames, jobID)
	return nil
}

// cosineSimilarity is dot(a,b)/(|a||b|), in [-1,1]. A dimension
// mismatch is a defect and returns an error; a zero-length vector
// makes the ratio undefined and also errors rather than dividing by
// zero.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, fmt.Errorf("cosine similarity undefined for zero vector")
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
