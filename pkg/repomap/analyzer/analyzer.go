// Package analyzer implements the Analyzer Driver (spec.md §4.C):
// discovery, parallel parsing, cache validation, and incremental rebuild.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/doge-run/doge/pkg/repomap"
	"github.com/doge-run/doge/pkg/repomap/lang"
	"github.com/doge-run/doge/pkg/repomap/store"
)

// Driver walks a project root, extracts Symbols per file, and
// consults/updates a persisted cache.
type Driver struct {
	root  string
	store *store.Store
}

// New creates a Driver rooted at root, backed by the given persisted
// store (may be nil — build()/build_cached() then always perform a full
// rebuild without consulting a cache).
func New(root string, st *store.Store) *Driver {
	return &Driver{root: root, store: st}
}

// Build discovers, parses, and extracts unconditionally, returning a
// fresh Repomap (spec.md §4.C "build()").
func (d *Driver) Build(ctx context.Context) (repomap.Repomap, repomap.FileHash, error) {
	files, err := d.discover()
	if err != nil {
		return repomap.Repomap{}, nil, err
	}
	return d.extractAll(ctx, files)
}

// BuildCached consults the persisted cache: if the current FileHash map
// equals the cached one, the cached Repomap is returned; otherwise a full
// rebuild runs (spec.md §4.C "build_cached()" — incremental rebuild is
// permitted but not required; this implementation takes the always-
// correct full-rebuild path).
func (d *Driver) BuildCached(ctx context.Context) (repomap.Repomap, repomap.FileHash, error) {
	files, err := d.discover()
	if err != nil {
		return repomap.Repomap{}, nil, err
	}

	currentHashes, err := hashFiles(files)
	if err != nil {
		return repomap.Repomap{}, nil, err
	}

	if d.store != nil {
		if rec, ok, loadErr := d.store.Load(); loadErr == nil && ok {
			if rec.Hashes.Equal(currentHashes) {
				return rec.Repomap, rec.Hashes, nil
			}
		}
	}

	rm, hashes, err := d.extractAll(ctx, files)
	if err != nil {
		return repomap.Repomap{}, nil, err
	}
	if d.store != nil {
		_ = d.store.Save(rm, hashes)
	}
	return rm, hashes, nil
}

// ClearCache drops the persisted cache for the project root (spec.md
// §4.C "clear_cache()").
func (d *Driver) ClearCache() error {
	if d.store == nil {
		return nil
	}
	return d.store.Clear()
}

// discover walks the project root for files whose extension has a
// registered extractor. Directories are not yielded; symlinks are not
// followed; matching is case-insensitive (spec.md §4.C "Discovery").
func (d *Driver) discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil // per-file error: log-and-skip (no logger here; caller logs via Build's error, if any, at the file level)
		}
		if entry.IsDir() {
			name := entry.Name()
			if name == ".git" || name == "node_modules" || name == "vendor" || name == ".doge" {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if lang.For(ext) != nil {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	return files, nil
}

// extractAll partitions files into max(1, N/num_cpus) chunks and
// processes chunks concurrently via errgroup, then merges associatively
// (spec.md §4.C "Parallelism"). Per-file errors are skipped; one bad file
// never fails the build.
func (d *Driver) extractAll(ctx context.Context, files []string) (repomap.Repomap, repomap.FileHash, error) {
	numCPU := runtime.NumCPU()
	chunkCount := len(files) / numCPU
	if chunkCount < 1 {
		chunkCount = 1
	}
	chunks := chunkify(files, chunkCount)

	parts := make([]repomap.Repomap, len(chunks))
	hashParts := make([]repomap.FileHash, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			rm, hashes, err := extractChunk(gctx, chunk)
			if err != nil {
				return err
			}
			parts[i] = rm
			hashParts[i] = hashes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return repomap.Repomap{}, nil, err
	}

	merged := repomap.MergeMany(parts)
	allHashes := repomap.FileHash{}
	for _, h := range hashParts {
		for path, digest := range h {
			allHashes[path] = digest
		}
	}
	return merged, allHashes, nil
}

// extractChunk owns one parser per worker; switching language resets the
// parser's grammar (spec.md §4.C "Each worker owns one parser").
func extractChunk(ctx context.Context, files []string) (repomap.Repomap, repomap.FileHash, error) {
	parser := sitter.NewParser()
	var rm repomap.Repomap
	hashes := repomap.FileHash{}

	for _, path := range files {
		select {
		case <-ctx.Done():
			return rm, hashes, ctx.Err()
		default:
		}

		source, err := os.ReadFile(path)
		if err != nil {
			continue // per-file I/O failure: skip
		}

		ext := strings.ToLower(filepath.Ext(path))
		ex := lang.For(ext)
		if ex == nil {
			continue
		}

		hashes[path] = hashContent(source)

		var root *sitter.Node
		if sl := ex.SitterLang(); sl != nil {
			parser.SetLanguage(sl)
			tree, err := parser.ParseCtx(ctx, nil, source)
			if err != nil || tree == nil {
				continue // unparseable: skip, build continues
			}
			root = tree.RootNode()
		}

		rm.Symbols = append(rm.Symbols, ex.Extract(path, source, root)...)
	}
	return rm, hashes, nil
}

func hashFiles(files []string) (repomap.FileHash, error) {
	hashes := repomap.FileHash{}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		hashes[path] = hashContent(content)
	}
	return hashes, nil
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func chunkify(files []string, numChunks int) [][]string {
	if numChunks <= 0 {
		numChunks = 1
	}
	chunks := make([][]string, 0, numChunks)
	size := (len(files) + numChunks - 1) / numChunks
	if size == 0 {
		size = 1
	}
	for i := 0; i < len(files); i += size {
		end := i + size
		if end > len(files) {
			end = len(files)
		}
		chunks = append(chunks, files[i:end])
	}
	if len(chunks) == 0 {
		chunks = append(chunks, nil)
	}
	return chunks
}
