// Package program wires the engine together for one process: the type
// registry, the function catalog, the live pipeline and the persistence
// store. It runs the execution loop and serves the HTTP front-end.
package program

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/visiongraph/internal/config"
	"github.com/matzehuels/visiongraph/pkg/catalog"
	"github.com/matzehuels/visiongraph/pkg/function"
	"github.com/matzehuels/visiongraph/pkg/function/builtin"
	"github.com/matzehuels/visiongraph/pkg/nodetree"
	"github.com/matzehuels/visiongraph/pkg/persist"
	"github.com/matzehuels/visiongraph/pkg/pipeline"
	"github.com/matzehuels/visiongraph/pkg/types"
)

const shutdownTimeout = 5 * time.Second

// Program owns the engine state of a running process.
type Program struct {
	Registry *types.Registry
	Catalog  *function.Catalog
	Pipeline *pipeline.Pipeline
	Store    *persist.Store

	cfg    config.Config
	logger *log.Logger

	// mu serializes imports and profile switches so a switch and the
	// import that follows it are not interleaved with another request.
	mu sync.Mutex
}

// Options configures [New].
type Options struct {
	Config config.Config
	Logger *log.Logger
	// Store replaces the store opened from the configuration.
	Store *persist.Store
	// Modules replaces the builtin function modules.
	Modules []*function.Module
}

// New builds the engine. The pipeline starts empty; call [Program.Restore]
// to load the active profile.
func New(opts Options) (*Program, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	reg := types.NewRegistry()

	mods := opts.Modules
	if mods == nil {
		mods = builtin.Modules()
	}
	cat, err := function.NewCatalog(reg, mods...)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	store := opts.Store
	if store == nil {
		store = persist.Open(persist.Options{Override: opts.Config.PersistDir, Logger: logger})
	}

	return &Program{
		Registry: reg,
		Catalog:  cat,
		Pipeline: pipeline.New(reg, cat, logger),
		Store:    store,
		cfg:      opts.Config,
		logger:   logger,
	}, nil
}

// Restore imports the active profile's stored nodetree into the pipeline.
// A missing or unreadable document leaves the pipeline as it is.
func (p *Program) Restore(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.restore(ctx)
}

func (p *Program) restore(ctx context.Context) error {
	tree, ok := p.Store.NodeTree()
	if !ok {
		p.logger.Warn("stored nodetree unavailable", "profile", p.Store.Profile())
		return nil
	}
	stats, err := nodetree.Import(ctx, p.Pipeline, tree)
	if err != nil {
		return fmt.Errorf("restore profile %d: %w", p.Store.Profile(), err)
	}
	p.logger.Info("restored nodetree", "profile", p.Store.Profile(), "nodes", len(tree.Nodes), "created", stats.Created)
	return nil
}

// Export snapshots the pipeline in the configured encoding.
func (p *Program) Export(ctx context.Context) *nodetree.NodeTree {
	return nodetree.Export(ctx, p.Pipeline, nodetree.Options{LinksOnly: p.cfg.LinksOnly})
}

// Import reconciles the pipeline with doc and, when that succeeds, persists
// the resulting nodetree to the active profile. The stored copy always uses
// the full input encoding. A failed save is logged and does not fail the
// import.
func (p *Program) Import(ctx context.Context, doc *nodetree.NodeTree) (nodetree.Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats, err := nodetree.Import(ctx, p.Pipeline, doc)
	if err != nil {
		return stats, err
	}
	if err := p.Store.SaveNodeTree(nodetree.Export(ctx, p.Pipeline, nodetree.Options{})); err != nil {
		p.logger.Error("persist nodetree", "err", err)
	}
	return stats, nil
}

// SwitchProfile activates profile n and loads its nodetree into the pipeline.
// It fails only for an invalid profile number or a stored document that
// cannot be imported.
func (p *Program) SwitchProfile(ctx context.Context, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.Store.SetProfile(n); err != nil {
		return err
	}
	return p.restore(ctx)
}

// Schema describes the function catalog in the configured layout.
func (p *Program) Schema() (*catalog.Schema, error) {
	return catalog.Export(p.Registry, p.Catalog, catalog.Options{Flat: p.cfg.FlatCatalog})
}

// Loop runs execution cycles until ctx is done, pausing the configured
// interval between cycles.
func (p *Program) Loop(ctx context.Context) error {
	interval := p.cfg.CycleInterval.Duration
	if interval <= 0 {
		interval = config.Default().CycleInterval.Duration
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastFailed int
	for {
		res, err := p.Pipeline.Run(ctx)
		if err != nil {
			return nil
		}
		if n := len(res.Failed); n != lastFailed {
			if n > 0 {
				p.logger.Warn("execution cycle has failing nodes", "failed", n, "err", res.Err())
			} else {
				p.logger.Info("execution cycle recovered")
			}
			lastFailed = n
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Serve runs the execution loop and an HTTP server for h until ctx is done
// or either stops with an error.
func (p *Program) Serve(ctx context.Context, h http.Handler) error {
	srv := &http.Server{
		Addr:              p.cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Loop(ctx)
	})
	g.Go(func() error {
		p.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
