package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/weavehq/weave/core"
)

// FileWriter persists file content for the file_write tool. The workspace
// normally backs this with the same root directory its provider reads from.
type FileWriter interface {
	Write(path, content string) error
}

// FileWriterFunc adapts a function to FileWriter.
type FileWriterFunc func(path, content string) error

// Write implements FileWriter.
func (f FileWriterFunc) Write(path, content string) error { return f(path, content) }

// NewFileRead builds the file_read tool: the work item content names a
// workspace-relative path, and execution emits a file-sourced knowledge item
// for it. The knowledge carries the path, not the bytes; content stays lazy
// so later renders see the current file. A missing file fails the work item.
func NewFileRead(provider core.FileProvider) *Func {
	return NewFunc(
		"file_read",
		"Read a workspace file into context. Work content: the file path.",
		AutoRun{Policy: AutoAlways, Delay: 2 * time.Second},
		func(_ context.Context, item core.Item) (Output, error) {
			path := strings.TrimSpace(item.Content)
			if path == "" {
				return Output{}, fmt.Errorf("file_read: empty path")
			}
			if _, err := provider.Resolve(path); err != nil {
				return Output{}, fmt.Errorf("file_read %s: %w", path, err)
			}
			return Output{
				Knowledges: []core.Draft{core.KnowledgeDraft(core.SourceFile, path, path, true)},
			}, nil
		},
	)
}

// NewFileWrite builds the file_write tool: the first line of the work item
// content is the path, everything after the first newline is the file body.
// Never auto-run; writing is the user's call.
func NewFileWrite(writer FileWriter) *Func {
	return NewFunc(
		"file_write",
		"Write a workspace file. Work content: path on the first line, body after it.",
		AutoRun{Policy: AutoNever},
		func(_ context.Context, item core.Item) (Output, error) {
			path, body, found := strings.Cut(item.Content, "\n")
			path = strings.TrimSpace(path)
			if path == "" {
				return Output{}, fmt.Errorf("file_write: missing path on first line")
			}
			if !found {
				body = ""
			}
			if err := writer.Write(path, body); err != nil {
				return Output{}, fmt.Errorf("file_write %s: %w", path, err)
			}
			note := fmt.Sprintf("Wrote %d bytes to %s", len(body), path)
			return Output{
				Knowledges: []core.Draft{core.KnowledgeDraft(core.SourceSystem, "file_write", note, true)},
			}, nil
		},
	)
}
