package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavehq/weave/core"
)

type mapProvider map[string]string

func (m mapProvider) Resolve(path string) (string, error) {
	if c, ok := m[path]; ok {
		return c, nil
	}
	return "", errors.New("no such file")
}

func workItem(executor, content string) core.Item {
	s := core.NewSession("ws")
	return s.Add(core.WorkDraft(core.SourceUser, "user", executor, content))
}

func TestFuncCanHandle(t *testing.T) {
	ft := NewFunc("echo", "echoes", AutoRun{Policy: AutoNever}, func(_ context.Context, item core.Item) (Output, error) {
		return Output{}, nil
	})

	assert.True(t, ft.CanHandle(workItem("echo", "x")))
	assert.False(t, ft.CanHandle(workItem("other", "x")))

	s := core.NewSession("ws")
	knowledge := s.Add(core.KnowledgeDraft(core.SourceUser, "user", "echo", false))
	assert.False(t, ft.CanHandle(knowledge))
}

func TestFileReadEmitsLazyFileKnowledge(t *testing.T) {
	ft := NewFileRead(mapProvider{"main.go": "package main"})

	out, err := ft.Execute(context.Background(), workItem("file_read", " main.go \n"))
	require.NoError(t, err)
	require.Len(t, out.Knowledges, 1)

	k := out.Knowledges[0]
	assert.Equal(t, core.SourceFile, k.SourceType)
	// Content is the path; the body is resolved at render time.
	assert.Equal(t, "main.go", k.Content)
	assert.True(t, k.Collapsed)
}

func TestFileReadMissingFileFails(t *testing.T) {
	ft := NewFileRead(mapProvider{})
	_, err := ft.Execute(context.Background(), workItem("file_read", "gone.go"))
	assert.Error(t, err)
}

func TestFileWrite(t *testing.T) {
	written := map[string]string{}
	ft := NewFileWrite(FileWriterFunc(func(path, content string) error {
		written[path] = content
		return nil
	}))

	out, err := ft.Execute(context.Background(), workItem("file_write", "notes.md\nline one\nline two"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", written["notes.md"])
	require.Len(t, out.Knowledges, 1)
	assert.Equal(t, core.SourceSystem, out.Knowledges[0].SourceType)
}

func TestFileWriteMissingPath(t *testing.T) {
	ft := NewFileWrite(FileWriterFunc(func(string, string) error { return nil }))
	_, err := ft.Execute(context.Background(), workItem("file_write", "\nbody only"))
	assert.Error(t, err)
}
