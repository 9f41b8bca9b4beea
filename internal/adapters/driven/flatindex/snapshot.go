package flatindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
)

// snapshot is the on-disk form of the index. Only live entries are
// written; superseded ones never leave the process.
type snapshot struct {
	Model      string          `json:"model"`
	Dimensions int             `json:"dimensions"`
	Entries    []snapshotEntry `json:"entries"`
}

type snapshotEntry struct {
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
}

// Persist writes a snapshot of the live entries. The write goes to a
// temp file first and is renamed into place, so a crash mid-write
// leaves the previous snapshot intact.
func (x *Index) Persist() error {
	if x.path == "" {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	cur := x.state.Load()
	if len(cur.entries) != cur.live {
		cur = compact(cur)
		x.state.Store(cur)
	}

	snap := snapshot{
		Model:      x.model,
		Dimensions: x.dimensions,
		Entries:    make([]snapshotEntry, 0, cur.live),
	}
	for _, e := range cur.entries {
		snap.Entries = append(snap.Entries, snapshotEntry{
			DocumentID: e.docID,
			ChunkIndex: e.chunkIndex,
			Text:       e.text,
			Embedding:  e.vec,
		})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %v", domain.ErrIndex, err)
	}

	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return fmt.Errorf("%w: create snapshot directory: %v", domain.ErrIndex, err)
	}

	tmp := x.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write snapshot: %v", domain.ErrIndex, err)
	}
	if err := os.Rename(tmp, x.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: commit snapshot: %v", domain.ErrIndex, err)
	}
	return nil
}

// loadSnapshot restores the index from disk. Called only during New,
// before the index is shared.
func (x *Index) loadSnapshot() error {
	data, err := os.ReadFile(x.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Dimensions != x.dimensions {
		return fmt.Errorf("%w: snapshot has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, snap.Dimensions, x.dimensions)
	}

	entries := make([]entry, 0, len(snap.Entries))
	for _, se := range snap.Entries {
		if len(se.Embedding) != x.dimensions {
			return fmt.Errorf("%w: snapshot entry %s/%d has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, se.DocumentID, se.ChunkIndex, len(se.Embedding), x.dimensions)
		}
		entries = append(entries, entry{
			docID:      se.DocumentID,
			chunkIndex: se.ChunkIndex,
			text:       se.Text,
			vec:        se.Embedding,
			norm:       vectorNorm(se.Embedding),
		})
	}

	// The snapshot records which model produced the vectors; that wins
	// over the configured model so retrieval can flag a mismatch.
	if snap.Model != "" {
		x.model = snap.Model
	}
	x.state.Store(&state{entries: entries, live: len(entries)})
	return nil
}
