// Package store implements the persisted repomap cache (spec.md §3
// "Persisted cache", §4.B Symbol Store + Hash Index) over an embedded
// bbolt database, grounded on bbolt's transactional bucket API (already
// a transitive dependency of the teacher's stack, promoted to direct use
// here per SPEC_FULL.md's DOMAIN STACK).
package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/doge-run/doge/pkg/repomap"
)

// SchemaVersion is bumped whenever the persisted record's shape changes.
// A cache written under a different version is treated as invalid rather
// than rejected with an error (original_source/src/analysis/database
// confirms a schema-version field on the persisted record).
const SchemaVersion = 1

var (
	bucketMeta    = []byte("meta")
	bucketSymbols = []byte("symbols")
	bucketHashes  = []byte("hashes")

	keySchemaVersion = []byte("schema_version")
	keyCreatedAt     = []byte("created_at")
	keyUpdatedAt     = []byte("updated_at")
	keyRepomapBlob   = []byte("repomap")
)

// Record is the full persisted cache: a Symbol bag plus its FileHash map
// and metadata (spec.md §3).
type Record struct {
	SchemaVersion int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Repomap       repomap.Repomap
	Hashes        repomap.FileHash
}

// Store wraps a bbolt database holding one project's persisted cache.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open repomap store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketSymbols, bucketHashes} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init repomap store buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the persisted Record. If no cache has ever been written, or
// it was written under a different SchemaVersion, ok is false and the
// caller should fall back to a full rebuild (spec.md §4.C build_cached).
func (s *Store) Load() (rec Record, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		blob := meta.Get(keySchemaVersion)
		if blob == nil {
			return nil
		}
		var version int
		if _, decErr := fmt.Sscanf(string(blob), "%d", &version); decErr != nil || version != SchemaVersion {
			return nil
		}

		symBlob := tx.Bucket(bucketSymbols).Get(keyRepomapBlob)
		if symBlob == nil {
			return nil
		}
		var rm repomap.Repomap
		if decErr := gob.NewDecoder(bytes.NewReader(symBlob)).Decode(&rm); decErr != nil {
			return nil
		}

		hashes := repomap.FileHash{}
		c := tx.Bucket(bucketHashes).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			hashes[string(k)] = string(v)
		}

		rec = Record{
			SchemaVersion: version,
			Repomap:       rm,
			Hashes:        hashes,
		}
		if createdBlob := meta.Get(keyCreatedAt); createdBlob != nil {
			rec.CreatedAt, _ = time.Parse(time.RFC3339, string(createdBlob))
		}
		if updatedBlob := meta.Get(keyUpdatedAt); updatedBlob != nil {
			rec.UpdatedAt, _ = time.Parse(time.RFC3339, string(updatedBlob))
		}
		ok = true
		return nil
	})
	return rec, ok, err
}

// Save overwrites the persisted cache with a fresh Repomap + FileHash
// (spec.md §4.C "The cache is only written on whole-build success").
func (s *Store) Save(rm repomap.Repomap, hashes repomap.FileHash) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rm); err != nil {
		return fmt.Errorf("encode repomap: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	return s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta.Get(keyCreatedAt) == nil {
			if err := meta.Put(keyCreatedAt, []byte(now)); err != nil {
				return err
			}
		}
		if err := meta.Put(keyUpdatedAt, []byte(now)); err != nil {
			return err
		}
		if err := meta.Put(keySchemaVersion, []byte(fmt.Sprintf("%d", SchemaVersion))); err != nil {
			return err
		}

		if err := tx.Bucket(bucketSymbols).Put(keyRepomapBlob, buf.Bytes()); err != nil {
			return err
		}

		if err := tx.DeleteBucket(bucketHashes); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		hb, err := tx.CreateBucket(bucketHashes)
		if err != nil {
			return err
		}
		for path, digest := range hashes {
			if err := hb.Put([]byte(path), []byte(digest)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear drops the persisted cache for the project root (spec.md §4.C
// clear_cache) without deleting the database file itself.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketSymbols, bucketHashes} {
			if err := tx.DeleteBucket(b); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}
		return nil
	})
}
