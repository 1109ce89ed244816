// Command doge is the terminal-resident coding assistant core: it wires
// configuration, logging, the repomap engine, the tool runtime, and the
// agent loop together for one interactive session (spec.md §1).
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/doge-run/doge/internal/config"
	"github.com/doge-run/doge/internal/logger"
	"github.com/doge-run/doge/pkg/agentloop"
	"github.com/doge-run/doge/pkg/agentloop/compact"
	"github.com/doge-run/doge/pkg/agentloop/provider"
	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/repomap"
	"github.com/doge-run/doge/pkg/repomap/analyzer"
	"github.com/doge-run/doge/pkg/repomap/store"
	"github.com/doge-run/doge/pkg/session"
	"github.com/doge-run/doge/pkg/tools"
	"github.com/doge-run/doge/pkg/toolset"
)

func main() {
	cfg, err := config.Load(filepath.Join(".doge", "config.toml"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	log := logger.SetupLogger(cfg)
	defer logger.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn().Msg("received interrupt, cancelling in-flight work")
		cancel()
	}()
	defer cancel()

	var repomapStore *store.Store
	var driver *analyzer.Driver
	if !cfg.NoRepomap {
		repomapStore, err = store.Open(cfg.RepomapDBPath())
		if err != nil {
			log.Error().Err(err).Msg("failed to open repomap store; continuing without a persisted cache")
		} else {
			defer repomapStore.Close()
		}
		driver = analyzer.New(cfg.ProjectRoot, repomapStore)
		if _, _, buildErr := driver.BuildCached(ctx); buildErr != nil {
			log.Error().Err(buildErr).Msg("initial repomap build failed")
		}
	}

	currentRepomap := func() repomap.Repomap {
		if driver == nil {
			return repomap.Repomap{}
		}
		rm, _, buildErr := driver.BuildCached(ctx)
		if buildErr != nil {
			log.Error().Err(buildErr).Msg("repomap lookup failed")
			return repomap.Repomap{}
		}
		return rm
	}

	sessionID := newSessionID()
	sess, err := session.Open(sessionID, cfg.SessionDir(sessionID))
	if err != nil {
		log.Error().Err(err).Msg("failed to open session; starting a fresh in-memory one")
		sess = session.New(sessionID, cfg.SessionDir(sessionID))
	}

	registry := toolset.New(toolset.Options{
		Repomap:  currentRepomap,
		TodoPath: cfg.TodoPath,
	})

	toolCtx := tools.Context{
		ProjectRoot:     cfg.ProjectRoot,
		AllowedPaths:    []string(cfg.AllowedPaths),
		AllowedCommands: []string(cfg.AllowedCommands),
		Session:         sess,
		Repomap:         currentRepomap,
	}

	client, err := newProvider(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to build LLM provider")
		os.Exit(1)
	}

	messages := []agentloop.Message{{Role: "system", Content: buildSystemPrompt(cfg)}}

	uiTx := make(chan agentloop.UIEvent, 16)
	go drainUIEvents(uiTx)

	reader := bufio.NewScanner(os.Stdin)
	fmt.Println("doge ready. Type an instruction and press enter (Ctrl-D to exit).")
	for {
		fmt.Print("> ")
		if !reader.Scan() {
			break
		}
		instruction := reader.Text()
		if instruction == "" {
			continue
		}
		sess.SetTitle(firstN(instruction, 30))
		messages = append(messages, agentloop.Message{Role: "user", Content: instruction})

		updated, final, runErr := agentloop.Run(ctx, client, cfg.Model, registry, toolCtx, messages, uiTx, sess, cfg)
		messages = updated

		if runErr != nil && doerr.Is(runErr, doerr.ContextLengthExceeded) {
			log.Warn().Msg("context length exceeded, compacting history")
			messages, runErr = compactAndRetry(ctx, client, cfg, messages, log)
			if runErr == nil {
				updated, final, runErr = agentloop.Run(ctx, client, cfg.Model, registry, toolCtx, messages, uiTx, sess, cfg)
				messages = updated
			}
		}

		if runErr != nil {
			log.Error().Err(runErr).Msg("instruction failed")
		} else if final != nil {
			fmt.Println(final.Content)
		}

		if err := runUpdateHook(ctx, sess, driver, log); err != nil {
			log.Error().Err(err).Msg("repomap update hook failed")
		}
		if err := sess.Save(); err != nil {
			log.Error().Err(err).Msg("failed to persist session")
		}
	}
}

// compactAndRetry implements the caller-side half of spec.md §4.H step 7:
// on a context-length-exceeded signal, run History Compaction and replace
// the conversation with the compacted summary before the caller retries.
func compactAndRetry(ctx context.Context, client agentloop.Provider, cfg *config.Config, messages []agentloop.Message, log arbor.ILogger) ([]agentloop.Message, error) {
	summary, err := compact.Compact(ctx, client, cfg.Model, messages)
	if err != nil {
		log.Error().Err(err).Msg("history compaction failed")
		return messages, err
	}
	return compact.Replace(messages, summary), nil
}

// runUpdateHook implements spec.md §4.G's Update Hook: after each
// top-level instruction, if changed_files is non-empty, clear the cache
// and rebuild (registered here, in the cmd consumer, not in the loop
// itself).
func runUpdateHook(ctx context.Context, sess *session.Session, driver *analyzer.Driver, log arbor.ILogger) error {
	if driver == nil {
		return nil
	}
	changed := sess.ClearChangedFiles()
	if len(changed) == 0 {
		return nil
	}
	log.Info().Msg("changed files detected, rebuilding repomap cache")
	if err := driver.ClearCache(); err != nil {
		return err
	}
	_, _, err := driver.BuildCached(ctx)
	return err
}

// newProvider selects the LLM transport per cfg.LLM.Provider (SPEC_FULL.md
// DOMAIN STACK: google.golang.org/genai as an alternate to the OpenAI-
// compatible default spec.md §6 mandates).
func newProvider(ctx context.Context, cfg *config.Config) (agentloop.Provider, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return provider.NewGemini(ctx, cfg.APIKey, cfg.Model)
	default:
		return agentloop.NewClient(cfg.BaseURL, cfg.APIKey, cfg.LLM), nil
	}
}

func buildSystemPrompt(cfg *config.Config) string {
	base := "You are doge, a terminal-resident coding assistant with filesystem, shell, and repomap search tools."
	if cfg.ProjectInstructionsFile == "" {
		return base
	}
	content, err := os.ReadFile(cfg.ProjectInstructionsFile)
	if err != nil {
		return base
	}
	return base + "\n\nProject instructions:\n" + string(content)
}

func drainUIEvents(ch <-chan agentloop.UIEvent) {
	for ev := range ch {
		switch ev.Kind {
		case agentloop.EventToolProcessing:
			fmt.Printf("[%s] %s\n", ev.ToolName, ev.Detail)
		case agentloop.EventAssistantContent:
			fmt.Println(ev.Detail)
		case agentloop.EventTodoUpdate:
			fmt.Println("[todo]", ev.Detail)
		case agentloop.EventDiff:
			fmt.Println(ev.Detail)
		}
	}
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func newSessionID() string {
	return fmt.Sprintf("session-%d", os.Getpid())
}
