// Package psyche executes named model invocation profiles against assembled
// context. The runner owns the psyche and model registries, per-psyche busy
// counters with observer notification, a workspace-wide cost accumulator,
// and the bounded successor chain: each hop's trimmed response becomes the
// next hop's parent output until the chain ends or its depth budget runs out.
package psyche

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/weavehq/weave/assemble"
	"github.com/weavehq/weave/core"
	"github.com/weavehq/weave/logging"
	"github.com/weavehq/weave/model"
)

// maxContinuations caps overflow resumption within a single hop so a model
// that keeps hitting its budget cannot spin forever.
const maxContinuations = 8

// ChainLink is supplied when a run is itself a link in an ongoing chain.
type ChainLink struct {
	ParentOutput   string
	RemainingDepth int
}

// RunResult is the terminal outcome of a run, covering every executed hop.
type RunResult struct {
	// Response is the last hop's spliced raw text.
	Response string
	// Psyche is the name of the psyche that produced Response.
	Psyche string
	// StopReason is how the last hop terminated. Extraction uses it to
	// decide whether the response is safe to parse structurally.
	StopReason model.StopReason
	// Cost is the token spend summed over all hops and continuations.
	Cost int
	// Truncated is set when the chain stopped on depth exhaustion rather
	// than successor absence. Advisory; Response is still usable.
	Truncated bool
}

// Options configures a Runner.
type Options struct {
	Logger logging.Logger
	// Persist, when set, is called after each hop's session mutations
	// (worker output, cost) so spend survives crashes mid-chain.
	Persist func(*core.Session) error
}

// Runner resolves psyches and models by name and drives chain execution.
// Registration is expected at startup; Run may be called concurrently from
// independent invocations.
type Runner struct {
	assembler *assemble.Assembler
	logger    logging.Logger
	persist   func(*core.Session) error

	mu      sync.RWMutex
	psyches map[string]core.Psyche
	models  map[string]model.Capability

	busyMu    sync.Mutex
	busy      map[string]int
	observers []func(psyche string, busy bool)

	costMu        sync.Mutex
	workspaceCost int
}

// NewRunner creates a Runner rendering context through the assembler.
func NewRunner(assembler *assemble.Assembler, optFns ...func(o *Options)) *Runner {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		assembler: assembler,
		logger:    logging.OrNoOp(opts.Logger),
		persist:   opts.Persist,
		psyches:   map[string]core.Psyche{},
		models:    map[string]model.Capability{},
		busy:      map[string]int{},
	}
}

// RegisterPsyche adds or replaces a psyche descriptor.
func (r *Runner) RegisterPsyche(p core.Psyche) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.psyches[p.Name] = p
}

// RegisterModel adds or replaces a model capability under the given id.
func (r *Runner) RegisterModel(id string, capability model.Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[id] = capability
}

// Psyche returns the registered descriptor with the given name.
func (r *Runner) Psyche(name string) (core.Psyche, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.psyches[name]
	return p, ok
}

// Psyches returns the registered descriptors sorted by name.
func (r *Runner) Psyches() []core.Psyche {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Psyche, 0, len(r.psyches))
	for _, p := range r.psyches {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered psyche names sorted.
func (r *Runner) Names() []string {
	psyches := r.Psyches()
	names := make([]string, len(psyches))
	for i, p := range psyches {
		names[i] = p.Name
	}
	return names
}

// Busy reports whether the named psyche has at least one invocation in
// flight.
func (r *Runner) Busy(name string) bool {
	r.busyMu.Lock()
	defer r.busyMu.Unlock()
	return r.busy[name] > 0
}

// OnBusyChange registers an observer notified when a psyche transitions
// between idle and busy. Intended for UI busy indication.
func (r *Runner) OnBusyChange(fn func(psyche string, busy bool)) {
	r.busyMu.Lock()
	defer r.busyMu.Unlock()
	r.observers = append(r.observers, fn)
}

// WorkspaceCost returns the process-wide accumulated spend across sessions.
func (r *Runner) WorkspaceCost() int {
	r.costMu.Lock()
	defer r.costMu.Unlock()
	return r.workspaceCost
}

// Run executes the named psyche and any successor chain against the given
// context input. systemContext is prepended to each hop's own system text.
// link is non-nil only when this call is itself a chained hop.
//
// Unknown psyche or model names are configuration errors returned to the
// caller; model transport failures are not errors (the capability reports a
// terminal empty response, which flows through like any other).
func (r *Runner) Run(
	ctx context.Context,
	name, systemContext string,
	in assemble.Input,
	link *ChainLink,
) (RunResult, error) {
	invocationID := uuid.NewString()

	state := struct {
		current   string
		parent    string
		remaining int
		cost      int
	}{current: name, remaining: -1}
	if link != nil {
		state.parent = link.ParentOutput
		state.remaining = link.RemainingDepth
	}

	var res RunResult
	for {
		p, capability, err := r.resolve(state.current)
		if err != nil {
			return RunResult{Cost: state.cost}, err
		}

		hop := r.runHop(ctx, p, capability, systemContext, in, state.parent)
		raw, hopCost := hop.Content, hop.Cost()
		state.cost += hopCost
		r.recordCost(in.Session, hopCost)
		if in.Session != nil {
			in.Session.SetWorkerOutput(p.Name, raw)
		}
		if r.persist != nil && in.Session != nil {
			if err := r.persist(in.Session); err != nil {
				r.logger.Error("persist after hop failed", "psyche", p.Name, "error", err)
			}
		}

		res = RunResult{Response: raw, Psyche: p.Name, StopReason: hop.StopReason, Cost: state.cost}
		r.logger.Info("psyche run completed",
			"invocation_id", invocationID, "psyche", p.Name, "cost", hopCost)

		if p.Chain == nil || p.Chain.Successor == "" {
			return res, nil
		}
		if state.remaining < 0 {
			// First hop of a chain: the descriptor supplies the budget.
			state.remaining = p.Chain.MaxDepth
		}
		if state.remaining <= 0 {
			res.Truncated = true
			r.logger.Warn("chain truncated at depth budget",
				"invocation_id", invocationID, "psyche", p.Name, "successor", p.Chain.Successor)
			return res, nil
		}
		state.remaining--
		state.parent = strings.TrimSpace(raw)
		state.current = p.Chain.Successor
	}
}

// resolve looks up the descriptor and its backing model.
func (r *Runner) resolve(name string) (core.Psyche, model.Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.psyches[name]
	if !ok {
		return core.Psyche{}, nil, fmt.Errorf("%w: %s", core.ErrUnknownPsyche, name)
	}
	capability, ok := r.models[p.ModelID]
	if !ok {
		return core.Psyche{}, nil, fmt.Errorf("%w: %s (psyche %s)", core.ErrUnknownModel, p.ModelID, name)
	}
	return p, capability, nil
}

// runHop executes one psyche invocation, including overflow continuation.
// The busy counter stays paired even if the capability panics.
func (r *Runner) runHop(
	ctx context.Context,
	p core.Psyche,
	capability model.Capability,
	systemContext string,
	in assemble.Input,
	parentOutput string,
) model.Result {
	r.setBusy(p.Name, +1)
	defer r.setBusy(p.Name, -1)

	in.ParentOutput = parentOutput
	rendered := r.assembler.Render(p.EffectiveAwareness(), in)

	inv := model.Invocation{
		ModelID:     p.ModelID,
		TokenBudget: p.TokenBudget,
		SystemText:  joinSystem(systemContext, p.SystemText),
		History:     []model.Message{{Role: "user", Text: rendered}},
		Priming:     p.Priming,
		Terminators: p.Terminators,
	}
	return r.generateComplete(ctx, capability, inv)
}

// generateComplete invokes the capability and, while the result overflows
// the token budget, resubmits the partial output as assistant history and
// resumes. The partial's trailing whitespace is deducted before the splice
// so the seam carries it exactly once.
func (r *Runner) generateComplete(ctx context.Context, capability model.Capability, inv model.Invocation) model.Result {
	res := capability.Invoke(ctx, inv)
	content := res.Content
	inTokens, outTokens := res.InputTokens, res.OutputTokens

	for i := 0; res.StopReason == model.StopOverflow; i++ {
		if i >= maxContinuations {
			r.logger.Warn("overflow continuation limit reached", "model", inv.ModelID)
			break
		}
		content = strings.TrimRight(content, " \t\r\n")
		next := inv
		next.Priming = ""
		next.History = append(append([]model.Message{}, inv.History...),
			model.Message{Role: "assistant", Text: content})
		res = capability.Invoke(ctx, next)
		content += res.Content
		inTokens += res.InputTokens
		outTokens += res.OutputTokens
	}

	return model.Result{
		Content:       content,
		StopReason:    res.StopReason,
		TerminatorHit: res.TerminatorHit,
		InputTokens:   inTokens,
		OutputTokens:  outTokens,
	}
}

// setBusy adjusts the per-psyche counter, notifying observers on idle/busy
// transitions. Counters support concurrent re-entrant invocation of the same
// psyche from different chain branches.
func (r *Runner) setBusy(name string, delta int) {
	r.busyMu.Lock()
	before := r.busy[name]
	after := before + delta
	r.busy[name] = after
	observers := r.observers
	r.busyMu.Unlock()

	if (before > 0) == (after > 0) {
		return
	}
	for _, fn := range observers {
		fn(name, after > 0)
	}
}

// recordCost adds hop spend to the session and the workspace accumulator.
// Workspace writes are serialized for cross-session parallelism.
func (r *Runner) recordCost(sess *core.Session, tokens int) {
	if tokens <= 0 {
		return
	}
	if sess != nil {
		sess.AddCost(tokens)
	}
	r.costMu.Lock()
	r.workspaceCost += tokens
	r.costMu.Unlock()
}

func joinSystem(systemContext, systemText string) string {
	switch {
	case systemContext == "":
		return systemText
	case systemText == "":
		return systemContext
	default:
		return systemContext + "\n\n" + systemText
	}
}
