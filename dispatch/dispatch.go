// Package dispatch matches work items to capability-providing tools and
// executes them, immediately or after a cancellable delay. Scheduled
// executions live in an explicit per-item table owned by the dispatcher;
// cancelling one is a first-class operation invoked by item removal, and a
// timer that fires after its item vanished is silently skipped.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/weavehq/weave/core"
	"github.com/weavehq/weave/logging"
	"github.com/weavehq/weave/tool"
)

// DefaultAutoRunDelay applies when a tool's auto-run declares no delay.
const DefaultAutoRunDelay = 2 * time.Second

// Options configures a Dispatcher.
type Options struct {
	Logger logging.Logger
	// Persist is called after every session mutation the dispatcher makes
	// (status transitions, folded tool output).
	Persist func(*core.Session) error
	// AutoRunDelay overrides the default scheduling delay.
	AutoRunDelay time.Duration
}

// Dispatcher owns the registered tools and the auto-execution table.
type Dispatcher struct {
	tools   []tool.Tool
	logger  logging.Logger
	persist func(*core.Session) error
	delay   time.Duration

	mu      sync.Mutex
	pending map[int]*time.Timer
}

// New creates a Dispatcher over the given tools.
func New(tools []tool.Tool, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{AutoRunDelay: DefaultAutoRunDelay}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{
		tools:   tools,
		logger:  logging.OrNoOp(opts.Logger),
		persist: opts.Persist,
		delay:   opts.AutoRunDelay,
		pending: map[int]*time.Timer{},
	}
}

// ToolNames returns the names of all registered tools, in registration order.
func (d *Dispatcher) ToolNames() []string {
	names := make([]string, len(d.tools))
	for i, t := range d.tools {
		names[i] = t.Name()
	}
	return names
}

// Tools returns the registered tools.
func (d *Dispatcher) Tools() []tool.Tool { return d.tools }

// Match returns the tool able to handle the item, or nil. At most one tool
// matches a given executor.
func (d *Dispatcher) Match(item core.Item) tool.Tool {
	for _, t := range d.tools {
		if t.CanHandle(item) {
			return t
		}
	}
	return nil
}

// Execute runs the matching tool against the work item with the given id,
// driving its status machine and persisting on each transition.
//
// Returns (false, nil) when there was nothing to do: the item is gone or
// already done (re-requesting execution on a done item is a no-op, not an
// error). Execution failures are captured on the item's error field with
// status failed and do not produce an error either; only the absence of a
// matching tool is an error, since it indicates broken configuration.
func (d *Dispatcher) Execute(ctx context.Context, sess *core.Session, id int) (bool, error) {
	item, ok := sess.Item(id)
	if !ok || item.Kind != core.KindWork {
		return false, nil
	}
	if item.Status == core.StatusDone {
		return false, nil
	}
	t := d.Match(item)
	if t == nil {
		return false, fmt.Errorf("%w: %s", core.ErrUnknownTool, item.Executor)
	}

	sess.SetStatus(id, core.StatusRunning, "")
	d.save(sess)

	out, err := d.executeGuarded(ctx, t, item)
	if err != nil {
		sess.SetStatus(id, core.StatusFailed, err.Error())
		d.save(sess)
		d.logger.Warn("tool execution failed", "tool", t.Name(), "item", id, "error", err)
		return true, nil
	}

	d.fold(sess, out)
	sess.SetStatus(id, core.StatusDone, "")
	d.save(sess)
	d.logger.Info("tool execution completed", "tool", t.Name(), "item", id)
	return true, nil
}

// ExecutePass runs every executable work item once, as a user-initiated
// pass: cold or failed items whose matching tool permits manual runs
// (on-manual-run or always). Items with the never policy, user-executed
// items and items no tool matches are skipped. Any pending scheduled
// execution for an item run here is cancelled. Returns how many executions
// were performed.
func (d *Dispatcher) ExecutePass(ctx context.Context, sess *core.Session) (int, error) {
	ran := 0
	for _, item := range sess.Snapshot() {
		if item.Kind != core.KindWork || item.Executor == core.ExecutorUser {
			continue
		}
		if item.Status != core.StatusCold && item.Status != core.StatusFailed {
			continue
		}
		t := d.Match(item)
		if t == nil || t.AutoRun().Policy == tool.AutoNever {
			continue
		}
		d.Cancel(item.ID)
		did, err := d.Execute(ctx, sess, item.ID)
		if err != nil {
			return ran, err
		}
		if did {
			ran++
		}
	}
	return ran, nil
}

// executeGuarded converts a panicking tool into a failed execution.
func (d *Dispatcher) executeGuarded(ctx context.Context, t tool.Tool, item core.Item) (out tool.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", t.Name(), r)
		}
	}()
	return t.Execute(ctx, item)
}

// fold adds a tool's output back into the session through the normal
// add-item path; new work items get their own auto-scheduling consideration.
func (d *Dispatcher) fold(sess *core.Session, out tool.Output) {
	for _, k := range out.Knowledges {
		sess.Add(k)
	}
	for _, w := range out.Works {
		added := sess.Add(w)
		d.Offer(sess, added)
	}
}

// Offer considers a newly added work item for auto-execution. A delayed
// execution is scheduled when a matching tool's policy is always-run; the
// handle is tracked per item id and a second offer for an id with a pending
// handle is ignored rather than leaking the first timer.
func (d *Dispatcher) Offer(sess *core.Session, item core.Item) {
	if item.Kind != core.KindWork || item.Executor == core.ExecutorUser {
		return
	}
	t := d.Match(item)
	if t == nil || t.AutoRun().Policy != tool.AutoAlways {
		return
	}
	delay := t.AutoRun().Delay
	if delay <= 0 {
		delay = d.delay
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.pending[item.ID]; exists {
		return
	}
	id := item.ID
	d.pending[id] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.pending, id)
		d.mu.Unlock()
		// The item may have been removed while the timer was pending;
		// Execute treats that as nothing to do.
		if _, err := d.Execute(context.Background(), sess, id); err != nil {
			d.logger.Warn("scheduled execution failed", "item", id, "error", err)
		}
	})
	d.logger.Debug("auto-execution scheduled", "item", id, "tool", t.Name(), "delay", delay)
}

// Cancel stops a pending scheduled execution for the item id, if any.
// Invoked by item removal; idempotent.
func (d *Dispatcher) Cancel(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.pending[id]; ok {
		timer.Stop()
		delete(d.pending, id)
	}
}

// PendingCount reports how many scheduled executions are outstanding.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels every pending scheduled execution.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, timer := range d.pending {
		timer.Stop()
		delete(d.pending, id)
	}
}

func (d *Dispatcher) save(sess *core.Session) {
	if d.persist == nil {
		return
	}
	if err := d.persist(sess); err != nil {
		d.logger.Error("session persistence failed", "workspace", sess.WorkspaceName, "error", err)
	}
}
