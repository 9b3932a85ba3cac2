package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodegraph/pkg/cache"
	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/graph"
	"github.com/matzehuels/nodegraph/pkg/layout"
	"github.com/matzehuels/nodegraph/pkg/model"
	"github.com/matzehuels/nodegraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can share a Runner as long as each works on its own graph.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// A nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Run lays out g, writing positions and basic blocks into it. A cached layout
// for the same graph content and parameters is applied instead of
// recomputing. A custom height estimator has no cache identity, so such runs
// neither read nor write the cache.
func (r *Runner) Run(ctx context.Context, g *model.Graph, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	start := time.Now()

	graphHash, err := GraphHash(g)
	if err != nil {
		return nil, err
	}
	keyOpts, err := opts.LayoutKeyOpts()
	if err != nil {
		return nil, err
	}
	cacheKey := r.Keyer.LayoutKey(graphHash, keyOpts)
	hooks := observability.Cache()

	result := &Result{
		GraphHash: graphHash,
		Stats:     Stats{NodeCount: g.NodeCount(), EdgeCount: g.EdgeCount()},
	}

	cacheable := opts.Height == nil

	// Try cache first (unless refresh requested)
	if !opts.Refresh && cacheable {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				hooks.OnCacheHit(ctx, "layout")
				cached.Apply(g)
				result.Layout = cached
				result.CacheHit = true
				result.Stats.BlockCount = len(cached.Blocks)
				result.Stats.LayoutTime = time.Since(start)
				r.Logger.Debug("layout cache hit", "key", cacheKey)
				return result, nil
			}
			// If deserialization fails, fall through to recompute
		}
	}
	if cacheable {
		hooks.OnCacheMiss(ctx, "layout")
	}

	engine := layout.New(opts.Params, opts.Logger)
	if opts.Height != nil {
		engine.Height = opts.Height
	}
	res, err := engine.Layout(ctx, g)
	if err != nil {
		return nil, err
	}
	if opts.AssertAssigned {
		if err := AssertAssigned(g); err != nil {
			return nil, err
		}
	}

	result.Layout = graph.ExportLayout(g, res.Debug)
	result.Stats.BlockCount = len(g.BasicBlocks)
	result.Stats.LayoutTime = time.Since(start)

	if !cacheable {
		r.Logger.Debug("custom height estimator, layout not cached")
	} else if data, err := graph.MarshalLayout(result.Layout); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}

	r.Logger.Info("computed layout",
		"nodes", result.Stats.NodeCount,
		"blocks", result.Stats.BlockCount,
		"duration", result.Stats.LayoutTime)
	return result, nil
}

// RenderWithCacheInfo renders a laid-out graph and reports whether the
// artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *model.Graph, opts Options) ([]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := graph.MarshalLayout(graph.ExportLayout(g, nil))
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.RenderKey(cache.Hash(append(layoutData, graphData...)), opts.RenderKeyOpts())
	hooks := observability.Cache()

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		hooks.OnCacheHit(ctx, "render")
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, "render")

	data, err := Render(ctx, g, opts)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLRender); err == nil {
		hooks.OnCacheSet(ctx, "render", len(data))
	}
	return data, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *model.Graph, opts Options) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return data, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// GraphHash hashes the graph's content, ignoring positions so that a
// laid-out graph hashes like its input.
func GraphHash(g *model.Graph) (string, error) {
	sg := graph.FromModel(g)
	for i := range sg.Nodes {
		sg.Nodes[i].Pos = nil
	}
	data, err := json.Marshal(sg)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash graph")
	}
	return cache.Hash(data), nil
}

// AssertAssigned checks that every pure data node of a laid-out graph is
// listed in exactly one basic block.
func AssertAssigned(g *model.Graph) error {
	seen := make(map[string]int)
	for _, b := range g.BasicBlocks {
		for _, id := range b.DataNodeIDs {
			seen[id]++
		}
	}
	for _, id := range g.DataNodeIDs() {
		switch seen[id] {
		case 1:
		case 0:
			return errors.New(errors.ErrCodeUnplacedNode, "data node %s is not assigned to any block", id).WithNode(id)
		default:
			return errors.New(errors.ErrCodeUnplacedNode, "data node %s is assigned to %d blocks", id, seen[id]).WithNode(id)
		}
	}
	return nil
}
