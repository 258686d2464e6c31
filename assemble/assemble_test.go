package assemble

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weavehq/weave/core"
	"github.com/weavehq/weave/files"
)

// mapProvider serves file content from a map; missing keys fail.
type mapProvider map[string]string

func (m mapProvider) Resolve(path string) (string, error) {
	if content, ok := m[path]; ok {
		return content, nil
	}
	return "", errors.New("no such file")
}

func fullAwareness() core.Awareness {
	return core.Awareness{
		ProjectTree:    true,
		Tools:          true,
		Psyches:        true,
		Items:          core.ItemsAll,
		ParentOutput:   true,
		FilesInContext: true,
	}
}

func TestRenderSectionOrder(t *testing.T) {
	sess := core.NewSession("ws")
	sess.Add(core.KnowledgeDraft(core.SourceUser, "user", "remember this", false))
	sess.Add(core.KnowledgeDraft(core.SourceFile, "main.go", "main.go", true))

	a := New(mapProvider{"main.go": "package main"})
	out := a.Render(fullAwareness(), Input{
		Session:      sess,
		Index:        files.NewIndex([]string{"main.go", "go.mod"}),
		Tools:        []ToolInfo{{Name: "file_read", Description: "read a file"}},
		Psyches:      []core.Psyche{{Name: "scribe", DisplayName: "Scribe", Description: "writes notes"}},
		ParentOutput: "previous hop output",
	})

	order := []string{
		"## Project structure",
		"## Available tools",
		"## Other agents",
		"## Files in context",
		"## Parent output",
		"## Session items",
	}
	last := -1
	for _, header := range order {
		idx := strings.Index(out, header)
		assert.GreaterOrEqual(t, idx, 0, "missing section %q", header)
		assert.Greater(t, idx, last, "section %q out of order", header)
		last = idx
	}
}

func TestRenderOmitsEmptySections(t *testing.T) {
	a := New(mapProvider{})
	out := a.Render(fullAwareness(), Input{Session: core.NewSession("ws")})

	assert.Empty(t, out)
}

func TestRenderResolvesFileContent(t *testing.T) {
	sess := core.NewSession("ws")
	sess.Add(core.KnowledgeDraft(core.SourceFile, "main.go", "main.go", true))

	a := New(mapProvider{"main.go": "package main"})
	out := a.Render(fullAwareness(), Input{Session: sess})

	assert.Contains(t, out, "package main")
	// The path is a header, not the content.
	assert.Contains(t, out, "### main.go")
}

func TestRenderMissingFilePlaceholder(t *testing.T) {
	sess := core.NewSession("ws")
	sess.Add(core.KnowledgeDraft(core.SourceFile, "gone.go", "gone.go", true))

	a := New(mapProvider{})
	out := a.Render(fullAwareness(), Input{Session: sess})

	assert.Contains(t, out, FileMissingPlaceholder)
}

func TestRenderItemScopeFilters(t *testing.T) {
	sess := core.NewSession("ws")
	sess.Add(core.KnowledgeDraft(core.SourceUser, "user", "a fact", false))
	sess.Add(core.WorkDraft(core.SourceUser, "user", "file_read", "go.mod"))

	a := New(mapProvider{})

	aw := fullAwareness()
	aw.Items = core.ItemsKnowledge
	out := a.Render(aw, Input{Session: sess})
	assert.Contains(t, out, "a fact")
	assert.NotContains(t, out, "executor: file_read")

	aw.Items = core.ItemsWork
	out = a.Render(aw, Input{Session: sess})
	assert.NotContains(t, out, "a fact")
	assert.Contains(t, out, "executor: file_read")
	assert.Contains(t, out, "status: cold")
}

func TestRenderZeroItemScopeShowsAll(t *testing.T) {
	sess := core.NewSession("ws")
	sess.Add(core.KnowledgeDraft(core.SourceUser, "user", "a fact", false))
	sess.Add(core.WorkDraft(core.SourceUser, "user", "file_read", "go.mod"))

	a := New(mapProvider{})
	// A partial awareness override leaving Items unset keeps items visible.
	out := a.Render(core.Awareness{ParentOutput: true}, Input{Session: sess})

	assert.Contains(t, out, "a fact")
	assert.Contains(t, out, "executor: file_read")
}

func TestRenderDisabledSections(t *testing.T) {
	sess := core.NewSession("ws")
	sess.Add(core.KnowledgeDraft(core.SourceUser, "user", "a fact", false))

	a := New(mapProvider{})
	out := a.Render(core.Awareness{Items: core.ItemsNone}, Input{
		Session: sess,
		Index:   files.NewIndex([]string{"main.go"}),
		Tools:   []ToolInfo{{Name: "file_read", Description: "read"}},
	})

	assert.Empty(t, out)
}

func TestRenderWorkErrorShown(t *testing.T) {
	sess := core.NewSession("ws")
	w := sess.Add(core.WorkDraft(core.SourceUser, "user", "file_read", "gone.go"))
	sess.SetStatus(w.ID, core.StatusFailed, "no such file")

	a := New(mapProvider{})
	out := a.Render(fullAwareness(), Input{Session: sess})

	assert.Contains(t, out, "status: failed")
	assert.Contains(t, out, "last error: no such file")
}

func TestRenderParentOutputOnlyWhenPresent(t *testing.T) {
	a := New(mapProvider{})
	out := a.Render(fullAwareness(), Input{Session: core.NewSession("ws")})
	assert.NotContains(t, out, "## Parent output")
}
