// Package fstools implements the Filesystem & Patch Tools (spec.md §4.F):
// fs_read, fs_read_many_files, fs_write, fs_list, search_text, find_file,
// edit, create_patch, apply_patch, get_file_sha256. Every path-taking
// tool shares the containment and binary-content checks defined here.
package fstools

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

// resolvePath rejects relative paths and paths outside the project root
// or an explicitly allow-listed root (spec.md §4.F, §9 "reject symlinks
// that escape" — checked both lexically and, where the path or an
// existing ancestor resolves through a symlink, against its real target).
func resolvePath(raw string, tc tools.Context) (string, error) {
	if raw == "" {
		return "", doerr.New(doerr.ToolArgInvalid, "path must not be empty")
	}
	if !filepath.IsAbs(raw) {
		return "", doerr.New(doerr.PathEscape, "path must be absolute: "+raw)
	}
	clean := filepath.Clean(raw)

	resolved, err := resolveSymlinks(clean)
	if err != nil {
		return "", doerr.New(doerr.PathEscape, "path escapes project root: "+raw)
	}

	roots := make([]string, 0, 1+len(tc.AllowedPaths))
	roots = append(roots, tc.ProjectRoot)
	roots = append(roots, tc.AllowedPaths...)

	for _, root := range roots {
		if root == "" {
			continue
		}
		rootClean := filepath.Clean(root)
		if !withinRoot(clean, rootClean) {
			continue
		}
		rootResolved, err := resolveSymlinks(rootClean)
		if err != nil {
			rootResolved = rootClean
		}
		if withinRoot(resolved, rootResolved) {
			return clean, nil
		}
	}
	return "", doerr.New(doerr.PathEscape, "path escapes project root: "+raw)
}

func withinRoot(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// resolveSymlinks resolves symlinks in path, falling back to the nearest
// existing ancestor when path itself doesn't exist yet (e.g. a file
// fs_write is about to create) — a symlinked ancestor directory still
// can't be used to escape the project root.
func resolveSymlinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	parent := filepath.Dir(path)
	if parent == path {
		return "", err
	}
	resolvedParent, perr := resolveSymlinks(parent)
	if perr != nil {
		return "", perr
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

// relToProjectRoot converts an absolute, already-resolved path into the
// project-relative form recorded into the session's changed_files set.
func relToProjectRoot(abs string, tc tools.Context) string {
	rel, err := filepath.Rel(tc.ProjectRoot, abs)
	if err != nil {
		return abs
	}
	return rel
}

func rejectBinary(content []byte) error {
	if bytes.IndexByte(content, 0) != -1 {
		return doerr.New(doerr.BinaryContent, "content contains a null byte")
	}
	return nil
}

var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".7z": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true, ".o": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".mp3": true, ".mp4": true,
	".mov": true, ".wav": true, ".class": true, ".jar": true, ".pyc": true,
}

func isBinaryExtension(path string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(path))]
}
