// Package assemble renders the textual context a psyche is allowed to see.
// An Awareness configuration independently switches each section; the
// rendered sections follow a fixed order (project structure, tools, psyches,
// files in context, parent output, items) and empty sections are omitted
// rather than emitted as bare headers.
package assemble

import (
	"fmt"
	"strings"

	"github.com/weavehq/weave/core"
	"github.com/weavehq/weave/files"
	"github.com/weavehq/weave/logging"
)

// ToolInfo is the tool catalogue entry rendered for psyche legibility.
type ToolInfo struct {
	Name        string
	Description string
}

// Input carries everything a single render may draw from. The file index is
// an explicitly owned snapshot injected by the caller; the assembler holds
// no global file state.
type Input struct {
	Session      *core.Session
	Index        files.Index
	Tools        []ToolInfo
	Psyches      []core.Psyche
	ParentOutput string
}

// Assembler renders awareness-scoped context snapshots. File-sourced
// knowledge is resolved through the provider at render time so psyches see
// current on-disk content; a read failure degrades to a placeholder, never
// an error.
type Assembler struct {
	provider core.FileProvider
	logger   logging.Logger
}

// Options configures an Assembler.
type Options struct {
	Logger logging.Logger
}

// New creates an Assembler reading file content through provider.
func New(provider core.FileProvider, optFns ...func(o *Options)) *Assembler {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Assembler{provider: provider, logger: logging.OrNoOp(opts.Logger)}
}

// FileMissingPlaceholder is substituted when a file-backed item cannot be read.
const FileMissingPlaceholder = "[File not found]"

// Render produces one flattened context blob for the given awareness.
func (a *Assembler) Render(aw core.Awareness, in Input) string {
	var sections []string

	if aw.ProjectTree {
		if s := renderProjectTree(in.Index); s != "" {
			sections = append(sections, s)
		}
	}
	if aw.Tools {
		if s := renderTools(in.Tools); s != "" {
			sections = append(sections, s)
		}
	}
	if aw.Psyches {
		if s := renderPsyches(in.Psyches); s != "" {
			sections = append(sections, s)
		}
	}
	if aw.FilesInContext {
		if s := a.renderFiles(in.Session); s != "" {
			sections = append(sections, s)
		}
	}
	if aw.ParentOutput && in.ParentOutput != "" {
		sections = append(sections, "## Parent output\n\n"+in.ParentOutput)
	}
	// The zero scope renders everything: an awareness override that does not
	// mention items keeps them visible, hiding them takes an explicit none.
	if aw.Items != core.ItemsNone {
		if s := a.renderItems(in.Session, aw.Items, aw.FilesInContext); s != "" {
			sections = append(sections, s)
		}
	}

	return strings.Join(sections, "\n\n")
}

func renderProjectTree(ix files.Index) string {
	paths := ix.Paths()
	if len(paths) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Project structure\n")
	for _, p := range paths {
		b.WriteString("\n- ")
		b.WriteString(p)
	}
	return b.String()
}

func renderTools(tools []ToolInfo) string {
	if len(tools) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Available tools\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "\n- %s: %s", t.Name, t.Description)
	}
	return b.String()
}

func renderPsyches(psyches []core.Psyche) string {
	if len(psyches) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Other agents\n")
	for _, p := range psyches {
		name := p.Name
		if p.DisplayName != "" && p.DisplayName != p.Name {
			name = fmt.Sprintf("%s (%s)", p.Name, p.DisplayName)
		}
		fmt.Fprintf(&b, "\n- %s: %s", name, p.Description)
	}
	return b.String()
}

// renderFiles renders every file-backed knowledge item with its current
// on-disk content.
func (a *Assembler) renderFiles(sess *core.Session) string {
	if sess == nil {
		return ""
	}
	var b strings.Builder
	any := false
	for _, it := range sess.Snapshot() {
		if !it.IsFileKnowledge() {
			continue
		}
		if !any {
			b.WriteString("## Files in context")
			any = true
		}
		fmt.Fprintf(&b, "\n\n### %s\n\n%s", it.Content, a.resolve(it.Content))
	}
	if !any {
		return ""
	}
	return b.String()
}

// renderItems renders the session's items under the given scope. File-backed
// knowledge already covered by the files section is skipped to avoid
// rendering the same content twice; when that section is disabled the file
// content is substituted here instead.
func (a *Assembler) renderItems(sess *core.Session, scope core.ItemScope, filesRendered bool) string {
	if sess == nil {
		return ""
	}
	var b strings.Builder
	any := false
	for _, it := range sess.Snapshot() {
		switch scope {
		case core.ItemsKnowledge:
			if it.Kind != core.KindKnowledge {
				continue
			}
		case core.ItemsWork:
			if it.Kind != core.KindWork {
				continue
			}
		}
		if it.IsFileKnowledge() && filesRendered {
			continue
		}
		if !any {
			b.WriteString("## Session items")
			any = true
		}
		b.WriteString("\n\n")
		b.WriteString(a.renderItem(it))
	}
	if !any {
		return ""
	}
	return b.String()
}

func (a *Assembler) renderItem(it core.Item) string {
	switch it.Kind {
	case core.KindWork:
		head := fmt.Sprintf("[work #%d from %s, executor: %s, status: %s]", it.ID, it.SourceName, it.Executor, it.Status)
		if it.Error != "" {
			head += fmt.Sprintf(" (last error: %s)", it.Error)
		}
		return head + "\n" + it.Content
	default:
		content := it.Content
		if it.IsFileKnowledge() {
			content = a.resolve(it.Content)
		}
		return fmt.Sprintf("[knowledge #%d from %s]\n%s", it.ID, it.SourceName, content)
	}
}

func (a *Assembler) resolve(path string) string {
	if a.provider == nil {
		return FileMissingPlaceholder
	}
	content, err := a.provider.Resolve(path)
	if err != nil {
		a.logger.Warn("file resolution failed", "path", path, "error", err)
		return FileMissingPlaceholder
	}
	return content
}
