package extract

import (
	"strings"

	"github.com/weavehq/weave/core"
)

// Tag vocabulary recognized in psyche responses.
const (
	knowledgeOpen  = "<knowledge>"
	knowledgeClose = "</knowledge>"
	workOpen       = "<work>"
	workClose      = "</work>"
	targetOpen     = "<target>"
	targetClose    = "</target>"
)

// DefaultExecutor is assigned to work blocks that carry no target tag.
const DefaultExecutor = "agent"

// Responder turns one raw psyche response into item drafts. It holds the
// fixed allow-list of tool names that a target tag may select; target values
// outside the allow-list (and not the user sentinel) are kept verbatim so
// they can address psyches by name.
type Responder struct {
	toolNames map[string]struct{}
}

// NewResponder builds a response extractor with the given tool allow-list.
func NewResponder(toolNames []string) *Responder {
	m := make(map[string]struct{}, len(toolNames))
	for _, n := range toolNames {
		m[n] = struct{}{}
	}
	return &Responder{toolNames: m}
}

// Extract converts a response into drafts. clean reports whether the response
// terminated at a designed stop (or ended naturally) rather than being cut
// off or filtered; sourceName is the producing psyche's name.
//
// Three-tier fallback, in order:
//  1. Not clean: structural parsing is skipped entirely and the raw text is
//     wrapped as one uncollapsed knowledge draft. Partial structured output
//     is worse than none.
//  2. Clean: every knowledge block becomes a collapsed knowledge draft;
//     every work block becomes a cold work draft, with its executor taken
//     from an inner target tag when present.
//  3. Clean but nothing recognized: same wrap as tier 1.
//
// The result is never empty: psyche output is never silently dropped.
func (r *Responder) Extract(raw string, clean bool, sourceName string) []core.Draft {
	if !clean {
		return []core.Draft{core.KnowledgeDraft(core.SourcePsyche, sourceName, raw, false)}
	}

	var drafts []core.Draft
	for _, body := range Blocks(raw, knowledgeOpen, knowledgeClose) {
		drafts = append(drafts, core.KnowledgeDraft(core.SourcePsyche, sourceName, strings.TrimSpace(body), true))
	}
	for _, body := range Blocks(raw, workOpen, workClose) {
		executor, content := r.splitWork(body)
		drafts = append(drafts, core.WorkDraft(core.SourcePsyche, sourceName, executor, content))
	}

	if len(drafts) == 0 {
		return []core.Draft{core.KnowledgeDraft(core.SourcePsyche, sourceName, raw, false)}
	}
	return drafts
}

// splitWork resolves a work block body into (executor, content). Without a
// target tag the whole body is content and the executor defaults. With one,
// the target text selects the executor and the content is everything after
// the closing target tag.
func (r *Responder) splitWork(body string) (string, string) {
	target, ok := Block(body, targetOpen, targetClose)
	if !ok {
		return DefaultExecutor, strings.TrimSpace(body)
	}
	rest := ""
	if i := strings.LastIndex(body, targetClose); i >= 0 {
		rest = body[i+len(targetClose):]
	}
	return r.mapTarget(strings.TrimSpace(target)), strings.TrimSpace(rest)
}

// mapTarget maps a target value onto an executor: the literal user sentinel,
// an allow-listed tool name, or a verbatim psyche name.
func (r *Responder) mapTarget(target string) string {
	if target == core.ExecutorUser {
		return core.ExecutorUser
	}
	if _, ok := r.toolNames[target]; ok {
		return target
	}
	if target == "" {
		return DefaultExecutor
	}
	return target
}
