// Package toolset assembles the static table of spec.md §4.E's 14 tools
// into a *tools.Registry. Kept separate from pkg/tools itself so that
// package can stay free of a dependency on every tool implementation
// package (which in turn depend on pkg/tools for the Tool interface).
package toolset

import (
	"github.com/doge-run/doge/pkg/repomap"
	"github.com/doge-run/doge/pkg/tools"
	"github.com/doge-run/doge/pkg/tools/fstools"
	"github.com/doge-run/doge/pkg/tools/repotool"
	"github.com/doge-run/doge/pkg/tools/shelltool"
	"github.com/doge-run/doge/pkg/tools/todotool"
)

// Options configures the assembled registry's live dependencies.
type Options struct {
	Repomap func() repomap.Repomap
	TodoPath func(sessionID string) string
}

// New builds the full static tool table (spec.md §4.E's named list).
func New(opts Options) *tools.Registry {
	r := tools.NewRegistry()

	r.Register(fstools.FSList{})
	r.Register(fstools.FSRead{})
	r.Register(fstools.FSReadMany{})
	r.Register(fstools.FSWrite{})
	r.Register(fstools.SearchText{})
	r.Register(fstools.FindFile{})
	r.Register(fstools.Edit{})
	r.Register(fstools.CreatePatch{})
	r.Register(fstools.ApplyPatch{})
	r.Register(fstools.GetFileSHA256{})

	r.Register(shelltool.ExecuteBash{})

	r.Register(repotool.SearchRepomap{Repomap: opts.Repomap})

	r.Register(todotool.TodoRead{PathFor: opts.TodoPath})
	r.Register(todotool.TodoWrite{PathFor: opts.TodoPath})

	return r
}
