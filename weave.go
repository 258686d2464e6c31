// Package weave provides a high-level façade over the session orchestration
// core: sessions of knowledge and work items, psyche (model profile)
// execution with response extraction, deterministic tools with scheduled
// auto-execution, and file-aware context assembly. Most applications interact
// with this package by:
//  1. Creating a Workspace via New() (optionally overriding the session
//     store, logger, workspace root and tool set)
//  2. Registering psyches and model capabilities (or applying a config file)
//  3. Opening a session and driving it through AddKnowledge / AddWork /
//     RunPsyche / ExecuteWork
//
// All defaults are safe for local development: an in-memory session store, a
// no-op logger and no file root. Durable deployments supply a session.Store
// backed by SQLite and a workspace root directory.
package weave

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/weavehq/weave/assemble"
	"github.com/weavehq/weave/config"
	"github.com/weavehq/weave/core"
	"github.com/weavehq/weave/dispatch"
	"github.com/weavehq/weave/extract"
	"github.com/weavehq/weave/files"
	"github.com/weavehq/weave/logging"
	"github.com/weavehq/weave/model"
	"github.com/weavehq/weave/model/anthropic"
	"github.com/weavehq/weave/model/openai"
	"github.com/weavehq/weave/psyche"
	"github.com/weavehq/weave/session"
	"github.com/weavehq/weave/tool"
)

// Options configures the Workspace instance.
type Options struct {
	// Store persists sessions. Defaults to an in-memory store.
	Store session.Store

	// Logger defaults to NoOp.
	Logger logging.Logger

	// Root is the workspace directory. When set, the default file tools
	// (file_read, file_write) and the project file index are enabled.
	Root string

	// Tools extends (or, when Root is unset, constitutes) the tool set.
	Tools []tool.Tool

	// SystemContext is workspace-level system text prepended to every
	// psyche's own system text.
	SystemContext string

	// AutoRunDelay overrides the default delay before scheduled tool
	// executions fire.
	AutoRunDelay time.Duration
}

// Workspace is the high-level façade aggregating the orchestration
// subsystems. All session mutations flow through it so that every change is
// persisted before the next one is accepted.
type Workspace struct {
	opts       Options
	store      session.Store
	logger     logging.Logger
	provider   core.FileProvider
	dir        *files.DirProvider
	watcher    *files.Watcher
	runner     *psyche.Runner
	dispatcher *dispatch.Dispatcher
	responder  *extract.Responder
}

// New creates a Workspace with optional overrides. Any unset service is
// initialized with an in-memory or no-op implementation.
func New(optFns ...func(o *Options)) *Workspace {
	opts := Options{
		Store:        session.NewMemoryStore(),
		Logger:       logging.NoOpLogger{},
		AutoRunDelay: dispatch.DefaultAutoRunDelay,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	w := &Workspace{
		opts:   opts,
		store:  opts.Store,
		logger: logging.OrNoOp(opts.Logger),
	}

	tools := opts.Tools
	if opts.Root != "" {
		w.dir = files.NewDirProvider(opts.Root)
		w.provider = w.dir
		tools = append([]tool.Tool{
			tool.NewFileRead(w.dir),
			tool.NewFileWrite(tool.FileWriterFunc(w.writeFile)),
		}, tools...)
	}

	w.dispatcher = dispatch.New(tools, func(o *dispatch.Options) {
		o.Logger = w.logger
		o.Persist = w.persist
		o.AutoRunDelay = opts.AutoRunDelay
	})
	w.responder = extract.NewResponder(w.dispatcher.ToolNames())
	w.runner = psyche.NewRunner(
		assemble.New(w.provider, func(o *assemble.Options) { o.Logger = w.logger }),
		func(o *psyche.Options) {
			o.Logger = w.logger
			o.Persist = w.persist
		},
	)
	return w
}

// RegisterPsyche adds or replaces a psyche descriptor.
func (w *Workspace) RegisterPsyche(p core.Psyche) { w.runner.RegisterPsyche(p) }

// RegisterModel adds or replaces a model capability under the given id.
func (w *Workspace) RegisterModel(id string, capability model.Capability) {
	w.runner.RegisterModel(id, capability)
}

// Psyches returns the registered psyche descriptors sorted by name.
func (w *Workspace) Psyches() []core.Psyche { return w.runner.Psyches() }

// Busy reports whether the named psyche has an invocation in flight.
func (w *Workspace) Busy(name string) bool { return w.runner.Busy(name) }

// OnBusyChange registers an observer for psyche idle/busy transitions.
func (w *Workspace) OnBusyChange(fn func(psyche string, busy bool)) {
	w.runner.OnBusyChange(fn)
}

// WorkspaceCost returns the process-wide accumulated token spend.
func (w *Workspace) WorkspaceCost() int { return w.runner.WorkspaceCost() }

// ApplyConfig registers the configuration's psyches and constructs vendor
// capabilities for its model catalogue. The config must already validate.
func (w *Workspace) ApplyConfig(cfg *config.Config) error {
	for _, m := range cfg.Models {
		capability, err := buildCapability(m)
		if err != nil {
			return err
		}
		w.RegisterModel(m.ID, capability)
	}
	for _, p := range cfg.Psyches {
		w.RegisterPsyche(p)
	}
	return nil
}

// buildCapability constructs the vendor adapter for a catalogue entry.
func buildCapability(m config.Model) (model.Capability, error) {
	switch m.Provider {
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if m.Name != "" {
				o.DefaultModel = anthropicsdk.Model(m.Name)
			}
			if m.Temperature > 0 {
				o.Temperature = m.Temperature
			}
			if m.MaxTokens > 0 {
				o.MaxTokens = int64(m.MaxTokens)
			}
		}), nil
	case "openai":
		return openai.New(func(o *openai.Options) {
			if m.Name != "" {
				o.DefaultModel = m.Name
			}
			if m.Temperature > 0 {
				o.Temperature = m.Temperature
			}
			if m.MaxTokens > 0 {
				o.MaxTokens = int64(m.MaxTokens)
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q for model %q", m.Provider, m.ID)
	}
}

// OpenSession loads the session for the workspace name, creating and
// persisting an empty one on first access. Worker output slots are seeded
// for every registered psyche.
func (w *Workspace) OpenSession(name string) (*core.Session, error) {
	sess, err := w.store.Load(name)
	if errors.Is(err, core.ErrSessionNotFound) {
		sess = core.NewSession(name)
		err = w.store.Save(sess)
	}
	if err != nil {
		return nil, err
	}
	sess.EnsureWorkerSlots(w.runner.Names())
	return sess, nil
}

// AddKnowledge appends a user-authored knowledge item.
func (w *Workspace) AddKnowledge(sess *core.Session, content string) core.Item {
	item := sess.Add(core.KnowledgeDraft(core.SourceUser, "user", content, false))
	w.persistLogged(sess)
	return item
}

// AddFileKnowledge brings a workspace file into context as a lazy
// file-backed knowledge item. Re-adding a path already in context is a
// no-op reporting false; an unresolvable path is an error.
func (w *Workspace) AddFileKnowledge(sess *core.Session, path string) (core.Item, bool, error) {
	if sess.HasFileKnowledge(path) {
		return core.Item{}, false, nil
	}
	if w.provider == nil {
		return core.Item{}, false, fmt.Errorf("no workspace root configured")
	}
	if _, err := w.provider.Resolve(path); err != nil {
		return core.Item{}, false, fmt.Errorf("add file %s: %w", path, err)
	}
	item := sess.Add(core.KnowledgeDraft(core.SourceFile, path, path, true))
	w.persistLogged(sess)
	return item, true, nil
}

// AddWork appends a work item for the given executor and offers it for
// auto-execution.
func (w *Workspace) AddWork(sess *core.Session, executor, content string) core.Item {
	item := sess.Add(core.WorkDraft(core.SourceUser, "user", executor, content))
	w.persistLogged(sess)
	w.dispatcher.Offer(sess, item)
	return item
}

// Remove deletes an item, cancelling any pending scheduled execution for it
// and pruning references in remaining items.
func (w *Workspace) Remove(sess *core.Session, id int) (core.Item, bool) {
	w.dispatcher.Cancel(id)
	item, ok := sess.Remove(id)
	if ok {
		w.persistLogged(sess)
	}
	return item, ok
}

// ToggleCollapsed flips an item's display hint.
func (w *Workspace) ToggleCollapsed(sess *core.Session, id int) bool {
	if !sess.ToggleCollapsed(id) {
		return false
	}
	w.persistLogged(sess)
	return true
}

// SetInputDraft stores the user's in-progress unsent text.
func (w *Workspace) SetInputDraft(sess *core.Session, text string) {
	sess.SetInputDraft(text)
	w.persistLogged(sess)
}

// ExecuteWork runs the work item's executor: a matching tool through the
// dispatcher, or a registered psyche through the runner with the same status
// machine. It reports whether an execution happened; missing or done items
// are a no-op, an executor naming neither a tool nor a psyche is a
// configuration error.
func (w *Workspace) ExecuteWork(ctx context.Context, sess *core.Session, id int) (bool, error) {
	item, ok := sess.Item(id)
	if !ok || item.Kind != core.KindWork || item.Status == core.StatusDone {
		return false, nil
	}
	if w.dispatcher.Match(item) != nil {
		return w.dispatcher.Execute(ctx, sess, id)
	}
	if _, ok := w.runner.Psyche(item.Executor); ok {
		return w.executePsycheWork(ctx, sess, item)
	}
	return false, fmt.Errorf("%w: %s", core.ErrUnknownTool, item.Executor)
}

// RunWorkPass executes every runnable work item once, as one user-initiated
// pass over the session. Tools that declared the never policy and
// user-executed items are left alone; see dispatch.Dispatcher.ExecutePass.
func (w *Workspace) RunWorkPass(ctx context.Context, sess *core.Session) (int, error) {
	return w.dispatcher.ExecutePass(ctx, sess)
}

// executePsycheWork drives a psyche-executed work item: the psyche runs over
// the session (the running item included), its response is extracted and
// folded back, and the item lands on done. Run errors mark it failed.
func (w *Workspace) executePsycheWork(ctx context.Context, sess *core.Session, item core.Item) (bool, error) {
	sess.SetStatus(item.ID, core.StatusRunning, "")
	w.persistLogged(sess)

	if _, _, err := w.RunPsyche(ctx, sess, item.Executor); err != nil {
		sess.SetStatus(item.ID, core.StatusFailed, err.Error())
		w.persistLogged(sess)
		return true, nil
	}
	sess.SetStatus(item.ID, core.StatusDone, "")
	w.persistLogged(sess)
	return true, nil
}

// RunPsyche executes the named psyche (and its successor chain) against the
// session, extracts the response into items and folds them back in. The
// returned items are the ones added by extraction.
func (w *Workspace) RunPsyche(ctx context.Context, sess *core.Session, name string) (psyche.RunResult, []core.Item, error) {
	in := assemble.Input{
		Session: sess,
		Index:   w.fileIndex(),
		Tools:   w.toolCatalogue(),
		Psyches: w.runner.Psyches(),
	}
	res, err := w.runner.Run(ctx, name, w.opts.SystemContext, in, nil)
	if err != nil {
		return res, nil, err
	}

	drafts := w.responder.Extract(res.Response, res.StopReason.Clean(), res.Psyche)
	items := make([]core.Item, 0, len(drafts))
	for _, d := range drafts {
		item := sess.Add(d)
		items = append(items, item)
		if item.Kind == core.KindWork {
			w.dispatcher.Offer(sess, item)
		}
	}
	w.persistLogged(sess)
	return res, items, nil
}

// StartWatcher begins watching the workspace root so the project file index
// stays current. Requires a configured root.
func (w *Workspace) StartWatcher() error {
	if w.dir == nil {
		return fmt.Errorf("no workspace root configured")
	}
	if w.watcher != nil {
		return nil
	}
	watcher, err := files.NewWatcher(w.dir, func(o *files.WatcherOptions) {
		o.Logger = w.logger
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	w.watcher = watcher
	return nil
}

// Close stops the file watcher and cancels pending scheduled executions.
func (w *Workspace) Close() error {
	w.dispatcher.Stop()
	if w.watcher != nil {
		return w.watcher.Stop()
	}
	return nil
}

// fileIndex returns the current project index: live from the watcher when
// running, a fresh scan otherwise, empty without a root.
func (w *Workspace) fileIndex() files.Index {
	if w.watcher != nil {
		return w.watcher.Index()
	}
	if w.dir != nil {
		index, err := w.dir.Scan()
		if err != nil {
			w.logger.Warn("project scan failed", "error", err)
			return files.Index{}
		}
		return index
	}
	return files.Index{}
}

func (w *Workspace) toolCatalogue() []assemble.ToolInfo {
	tools := w.dispatcher.Tools()
	infos := make([]assemble.ToolInfo, len(tools))
	for i, t := range tools {
		infos[i] = assemble.ToolInfo{Name: t.Name(), Description: t.Description()}
	}
	return infos
}

// writeFile backs the file_write tool, refusing paths that escape the root.
func (w *Workspace) writeFile(path, content string) error {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes workspace root: %s", path)
	}
	full := filepath.Join(w.opts.Root, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0o644)
}

func (w *Workspace) persist(sess *core.Session) error {
	return w.store.Save(sess)
}

func (w *Workspace) persistLogged(sess *core.Session) {
	if err := w.persist(sess); err != nil {
		w.logger.Error("session persistence failed", "workspace", sess.WorkspaceName, "error", err)
	}
}
