package compact

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/philippgille/chromem-go"

	"github.com/doge-run/doge/pkg/doerr"
)

// SnapshotStore persists compaction summaries for later retrieval (e.g.
// to ground a future compaction in a prior one), an optional enrichment
// beyond the single-shot replace flow (SPEC_FULL.md DOMAIN STACK:
// chromem-go), grounded on original_source/src/llm/compact_history.rs's
// practice of keeping prior snapshots addressable rather than discarding
// them on every compaction.
type SnapshotStore struct {
	collection *chromem.Collection
}

// NewSnapshotStore opens (or creates) a persistent chromem-go collection
// at dbPath for storing compaction snapshots.
func NewSnapshotStore(dbPath string) (*SnapshotStore, error) {
	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, doerr.Wrap(doerr.ToolExecution, "failed to open snapshot store", err)
	}
	coll, err := db.GetOrCreateCollection("compaction_snapshots", nil, hashEmbedding)
	if err != nil {
		return nil, doerr.Wrap(doerr.ToolExecution, "failed to open snapshot collection", err)
	}
	return &SnapshotStore{collection: coll}, nil
}

// Record stores one compaction's summary content under sessionID.
func (s *SnapshotStore) Record(ctx context.Context, sessionID, summary string) error {
	doc := chromem.Document{
		ID:      sessionID,
		Content: summary,
		Metadata: map[string]string{
			"session_id": sessionID,
		},
	}
	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return doerr.Wrap(doerr.ToolExecution, "failed to record compaction snapshot", err)
	}
	return nil
}

// Recall retrieves the n most similar prior snapshots to query.
func (s *SnapshotStore) Recall(ctx context.Context, query string, n int) ([]chromem.Result, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if n > count {
		n = count
	}
	results, err := s.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, doerr.Wrap(doerr.ToolExecution, "failed to query compaction snapshots", err)
	}
	return results, nil
}

// hashEmbedding is a deterministic, offline, content-hash-derived
// embedding: no network call or model weight is available in this
// runtime, so similarity degrades to coarse token-bucket overlap rather
// than semantic similarity. Documented as a stdlib-adjacent fallback in
// DESIGN.md — chromem-go is still exercised for storage/query, only the
// embedding function itself avoids an external API dependency.
func hashEmbedding(_ context.Context, text string) ([]float32, error) {
	const dims = 64
	vec := make([]float32, dims)
	for i := 0; i+4 <= len(text) || i == 0; i += 4 {
		end := i + 4
		if end > len(text) {
			end = len(text)
		}
		chunk := text[i:end]
		sum := sha256.Sum256([]byte(chunk))
		bucket := int(sum[0]) % dims
		vec[bucket] += 1
		if end == len(text) {
			break
		}
	}
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(float64(norm)))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}
