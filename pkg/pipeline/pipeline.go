// Package pipeline provides the layout → render pipeline shared by the CLI
// and the HTTP service.
//
// By centralizing caching and defaults here, both entry points produce the
// same layout for the same graph and parameters.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: position every node with [layout.Engine], cached by graph hash
//     and parameter hash
//  2. Render: export the laid-out graph as DOT, SVG, PNG, or layout JSON
//
// Each stage can be run independently.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Run(ctx, g, pipeline.Options{Params: params.Defaults()})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg, err := runner.Render(ctx, g, pipeline.Options{Format: pipeline.FormatSVG})
//
// [layout.Engine]: github.com/matzehuels/nodegraph/pkg/layout.Engine
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodegraph/pkg/cache"
	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/graph"
	"github.com/matzehuels/nodegraph/pkg/layout/params"
)

// Format constants for rendered outputs.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats lists the supported output formats in display order.
var ValidFormats = []string{FormatSVG, FormatPNG, FormatDOT, FormatJSON}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It supports JSON for API requests.
type Options struct {
	// Params is the layout geometry. A zero value means [params.Defaults].
	Params params.Params `json:"params"`

	// AssertAssigned fails the run when a pure data node ends up outside
	// every basic block.
	AssertAssigned bool `json:"assert_assigned,omitempty"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Format is the render output format.
	Format string `json:"format,omitempty"`

	// Runtime options (not serialized)
	Height params.HeightFunc `json:"-"`
	Logger *log.Logger       `json:"-"`
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Params.NodeWidth == 0 && o.Params.NodeHeight == 0 {
		o.Params = params.Defaults()
	}
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout sets defaults and validates the layout parameters.
func (o *Options) ValidateForLayout() error {
	o.SetDefaults()
	return o.Params.Validate()
}

// ValidateForRender sets defaults and validates the output format.
func (o *Options) ValidateForRender() error {
	o.SetDefaults()
	return errors.ValidateFormat(o.Format, ValidFormats...)
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() (cache.LayoutKeyOpts, error) {
	h, err := cache.HashJSON(o.Params)
	if err != nil {
		return cache.LayoutKeyOpts{}, errors.Wrap(errors.ErrCodeInternal, err, "hash params")
	}
	return cache.LayoutKeyOpts{ParamsHash: h, AssertAssigned: o.AssertAssigned}, nil
}

// RenderKeyOpts returns cache key options for the render stage.
func (o *Options) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{Format: o.Format}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a layout run.
type Result struct {
	// GraphHash is the content hash of the input graph without positions.
	GraphHash string

	// Layout holds positions, basic blocks, and debug notes.
	Layout graph.Layout

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether the layout came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	BlockCount int
	LayoutTime time.Duration
}
