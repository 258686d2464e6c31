// Package tool implements the deterministic capability subsystem: tools
// declare a unique name, a human description and an auto-run policy, match
// work items by executor, and reduce their results back into the session as
// new knowledge and work drafts.
package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/weavehq/weave/core"
)

// AutoRunPolicy controls when a tool may execute a freshly added work item.
type AutoRunPolicy string

const (
	// AutoNever means the tool only runs when the user explicitly asks.
	AutoNever AutoRunPolicy = "never"
	// AutoOnManual means the tool runs as part of a user-initiated run pass
	// but is never scheduled on item addition.
	AutoOnManual AutoRunPolicy = "on-manual-run"
	// AutoAlways means a newly added matching work item is scheduled for
	// execution after the configured delay.
	AutoAlways AutoRunPolicy = "always"
)

// AutoRun pairs a policy with its scheduling delay. A zero delay falls back
// to the dispatcher's default.
type AutoRun struct {
	Policy AutoRunPolicy
	Delay  time.Duration
}

// Output is what a tool folds back into the session. Drafts get their ids
// from the session; freshly added work follows the normal add-item path,
// including auto-scheduling.
type Output struct {
	Knowledges []core.Draft
	Works      []core.Draft
}

// Tool is the deterministic capability contract consumed by the dispatcher.
type Tool interface {
	// Name is the unique identifier matched against work item executors.
	Name() string
	// Description is shown to psyches in the tool catalogue.
	Description() string
	// AutoRun declares the tool's automatic execution policy.
	AutoRun() AutoRun
	// CanHandle reports whether this tool can process the work item.
	CanHandle(item core.Item) bool
	// Execute processes the work item. A returned error marks the item
	// failed with the error text; it is never propagated as a crash.
	Execute(ctx context.Context, item core.Item) (Output, error)
}

// Func adapts a plain function into a Tool matching work items by executor
// name. It has no mutable state and is safe for concurrent use.
type Func struct {
	name        string
	description string
	autoRun     AutoRun
	fn          func(ctx context.Context, item core.Item) (Output, error)
}

// NewFunc builds a function-backed tool.
func NewFunc(
	name, description string,
	autoRun AutoRun,
	fn func(ctx context.Context, item core.Item) (Output, error),
) *Func {
	return &Func{name: name, description: description, autoRun: autoRun, fn: fn}
}

// Name implements Tool.
func (t *Func) Name() string { return t.name }

// Description implements Tool.
func (t *Func) Description() string { return t.description }

// AutoRun implements Tool.
func (t *Func) AutoRun() AutoRun { return t.autoRun }

// CanHandle matches work items whose executor equals the tool name.
func (t *Func) CanHandle(item core.Item) bool {
	return item.Kind == core.KindWork && item.Executor == t.name
}

// Execute implements Tool.
func (t *Func) Execute(ctx context.Context, item core.Item) (Output, error) {
	if !t.CanHandle(item) {
		return Output{}, fmt.Errorf("tool %s cannot handle item %d", t.name, item.ID)
	}
	return t.fn(ctx, item)
}
