// Package flatindex implements the vector index as a flat in-memory
// scan with a JSON snapshot on disk. Exact cosine over every live entry
// is fast enough for corpora in the tens of thousands of chunks, and a
// flat layout keeps the atomicity story simple: mutations build a new
// immutable state and publish it with a single pointer swap.
package flatindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// entry is one chunk's vector in the index. Entries are append-only:
// an upsert marks the document's old entries superseded and appends
// the new set, so a published state is never mutated in place.
type entry struct {
	docID      string
	chunkIndex int
	text       string
	vec        []float32
	norm       float64
	superseded bool
}

// state is the immutable view queries read. A mutation clones the
// entries, applies its change, and publishes the result atomically, so
// a query observes either the old or the new complete set.
type state struct {
	entries []entry
	live    int
}

// Index is a flat cosine-similarity vector index.
type Index struct {
	path            string
	dimensions      int
	model           string
	scanParallelism int
	logger          *slog.Logger

	// mu serializes mutations. Queries never take it; they read the
	// atomically published state.
	mu    sync.Mutex
	state atomic.Pointer[state]
}

// Config holds index construction parameters.
type Config struct {
	// Path is the snapshot file location. Empty disables persistence.
	Path string

	// Dimensions is the expected vector dimension.
	Dimensions int

	// Model records which embedding model the vectors come from. A
	// loaded snapshot's model takes precedence, since it describes the
	// vectors actually in the index.
	Model string

	// ScanParallelism is the number of goroutines a query scans with.
	// Zero or negative means 1.
	ScanParallelism int

	Logger *slog.Logger
}

// New creates an index, loading the snapshot at cfg.Path when present.
// A missing or corrupt snapshot is not fatal: the index starts empty
// and reindexing repopulates it.
func New(cfg Config) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrIndex, cfg.Dimensions)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	parallelism := cfg.ScanParallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	idx := &Index{
		path:            cfg.Path,
		dimensions:      cfg.Dimensions,
		model:           cfg.Model,
		scanParallelism: parallelism,
		logger:          logger,
	}
	idx.state.Store(&state{})

	if cfg.Path != "" {
		if err := idx.loadSnapshot(); err != nil {
			// A dimension mismatch is a misconfigured embedder, not a
			// damaged snapshot. Starting empty would silently discard
			// the corpus, so it is fatal.
			if errors.Is(err, domain.ErrDimensionMismatch) {
				return nil, err
			}
			logger.Warn("snapshot unusable, starting with an empty index",
				"path", cfg.Path,
				"error", err,
			)
		}
	}

	return idx, nil
}

// Upsert atomically replaces all entries for documentID with chunks.
func (x *Index) Upsert(ctx context.Context, documentID string, chunks []driven.VectorChunk) error {
	if documentID == "" {
		return fmt.Errorf("%w: empty document id", domain.ErrIndex)
	}
	for _, c := range chunks {
		if len(c.Embedding) != x.dimensions {
			return fmt.Errorf("%w: chunk %d has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, c.ChunkIndex, len(c.Embedding), x.dimensions)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	next := x.cloneMarking(documentID)
	for _, c := range chunks {
		vec := make([]float32, len(c.Embedding))
		copy(vec, c.Embedding)
		next.entries = append(next.entries, entry{
			docID:      documentID,
			chunkIndex: c.ChunkIndex,
			text:       c.Text,
			vec:        vec,
			norm:       vectorNorm(vec),
		})
		next.live++
	}

	x.publish(next)
	return nil
}

// Delete removes all entries for a document. Deleting an absent
// document is a no-op.
func (x *Index) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	cur := x.state.Load()
	found := false
	for i := range cur.entries {
		if cur.entries[i].docID == documentID && !cur.entries[i].superseded {
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	x.publish(x.cloneMarking(documentID))
	return nil
}

// cloneMarking copies the current entries with documentID's live
// entries marked superseded. Caller holds mu.
func (x *Index) cloneMarking(documentID string) *state {
	cur := x.state.Load()
	next := &state{
		entries: make([]entry, len(cur.entries)),
		live:    cur.live,
	}
	copy(next.entries, cur.entries)
	for i := range next.entries {
		if next.entries[i].docID == documentID && !next.entries[i].superseded {
			next.entries[i].superseded = true
			next.live--
		}
	}
	return next
}

// publish installs a new state, compacting first when superseded
// entries outnumber live ones.
func (x *Index) publish(next *state) {
	if len(next.entries)-next.live > next.live {
		next = compact(next)
	}
	x.state.Store(next)
}

func compact(s *state) *state {
	compacted := &state{entries: make([]entry, 0, s.live)}
	for _, e := range s.entries {
		if !e.superseded {
			compacted.entries = append(compacted.entries, e)
		}
	}
	compacted.live = len(compacted.entries)
	return compacted
}

// Query returns up to topK live entries ranked by cosine similarity.
// Ties break by document id, then chunk index.
func (x *Index) Query(ctx context.Context, embedding []float32, topK int) ([]driven.VectorHit, error) {
	if len(embedding) != x.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(embedding), x.dimensions)
	}
	if topK <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := x.state.Load()
	if s.live == 0 {
		return nil, nil
	}

	queryNorm := vectorNorm(embedding)
	if queryNorm == 0 {
		return nil, nil
	}

	hits := x.scan(s, embedding, queryNorm)

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// scan scores every live entry, splitting the work across the
// configured number of goroutines.
func (x *Index) scan(s *state, embedding []float32, queryNorm float64) []driven.VectorHit {
	score := func(e *entry) (float64, bool) {
		if e.superseded || e.norm == 0 {
			return 0, false
		}
		var dot float64
		for i, v := range e.vec {
			dot += float64(v) * float64(embedding[i])
		}
		return dot / (e.norm * queryNorm), true
	}

	if x.scanParallelism == 1 || len(s.entries) < 2*x.scanParallelism {
		hits := make([]driven.VectorHit, 0, s.live)
		for i := range s.entries {
			if sc, ok := score(&s.entries[i]); ok {
				hits = append(hits, driven.VectorHit{
					DocumentID: s.entries[i].docID,
					ChunkIndex: s.entries[i].chunkIndex,
					Text:       s.entries[i].text,
					Score:      sc,
				})
			}
		}
		return hits
	}

	parts := make([][]driven.VectorHit, x.scanParallelism)
	stride := (len(s.entries) + x.scanParallelism - 1) / x.scanParallelism

	var wg sync.WaitGroup
	for p := 0; p < x.scanParallelism; p++ {
		lo := p * stride
		hi := lo + stride
		if hi > len(s.entries) {
			hi = len(s.entries)
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(p, lo, hi int) {
			defer wg.Done()
			var local []driven.VectorHit
			for i := lo; i < hi; i++ {
				if sc, ok := score(&s.entries[i]); ok {
					local = append(local, driven.VectorHit{
						DocumentID: s.entries[i].docID,
						ChunkIndex: s.entries[i].chunkIndex,
						Text:       s.entries[i].text,
						Score:      sc,
					})
				}
			}
			parts[p] = local
		}(p, lo, hi)
	}
	wg.Wait()

	var hits []driven.VectorHit
	for _, part := range parts {
		hits = append(hits, part...)
	}
	return hits
}

// Live returns the number of live entries.
func (x *Index) Live() int {
	return x.state.Load().live
}

// Dimensions returns the vector dimension the index expects.
func (x *Index) Dimensions() int {
	return x.dimensions
}

// Embedder returns the embedding model the index was built with.
func (x *Index) Embedder() string {
	return x.model
}

// Close persists the index and releases it.
func (x *Index) Close() error {
	return x.Persist()
}

func vectorNorm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
