package cache

import "fmt"

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// LayoutKey identifies a layout of the graph with the given content hash.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// RenderKey identifies a rendered artifact of a layout.
	RenderKey(layoutHash string, opts RenderKeyOpts) string
}

// LayoutKeyOpts holds the inputs besides the graph that change a layout.
type LayoutKeyOpts struct {
	ParamsHash     string `json:"params"`
	AssertAssigned bool   `json:"assert_assigned,omitempty"`
}

// RenderKeyOpts holds the inputs besides the layout that change an artifact.
type RenderKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct {
	// Version is mixed into every key; bump it to invalidate old entries.
	Version int
}

// NewDefaultKeyer returns a keyer for the current layout version.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{Version: 1}
}

// LayoutKey implements Keyer.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey(k.prefix("layout"), graphHash, opts)
}

// RenderKey implements Keyer.
func (k *DefaultKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return hashKey(k.prefix("render"), layoutHash, opts)
}

func (k *DefaultKeyer) prefix(kind string) string {
	return fmt.Sprintf("%s:v%d", kind, k.Version)
}

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// deployments can share one Redis without colliding.
type ScopedKeyer struct {
	Inner  Keyer
	Prefix string
}

// NewScopedKeyer wraps inner, or a [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{Inner: inner, Prefix: prefix}
}

// LayoutKey implements Keyer.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.Prefix + k.Inner.LayoutKey(graphHash, opts)
}

// RenderKey implements Keyer.
func (k *ScopedKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return k.Prefix + k.Inner.RenderKey(layoutHash, opts)
}
