package core

import "time"

// ItemKind discriminates the two item variants. Every consumer switches on
// it explicitly; there is no field-presence sniffing.
type ItemKind string

const (
	// KindKnowledge marks an informational item available to psyches.
	KindKnowledge ItemKind = "knowledge"
	// KindWork marks a pending action with an executor and a status machine.
	KindWork ItemKind = "work"
)

// SourceType categorizes where an item came from.
type SourceType string

const (
	// SourceUser marks user-authored items.
	SourceUser SourceType = "user"
	// SourcePsyche marks items extracted from a psyche response.
	SourcePsyche SourceType = "psyche"
	// SourceFile marks knowledge whose content is a file path resolved lazily.
	SourceFile SourceType = "file"
	// SourceSystem marks items emitted by tools or the orchestrator itself.
	SourceSystem SourceType = "system"
)

// WorkStatus is the work item state machine: cold -> running -> {done|failed}.
// done is terminal; failed is retryable.
type WorkStatus string

const (
	// StatusCold means the work item has not been executed yet.
	StatusCold WorkStatus = "cold"
	// StatusRunning means execution is in flight.
	StatusRunning WorkStatus = "running"
	// StatusDone means execution succeeded. Terminal.
	StatusDone WorkStatus = "done"
	// StatusFailed means the last execution attempt failed. Retryable.
	StatusFailed WorkStatus = "failed"
)

// ExecutorUser is the sentinel executor meaning "never auto-executed, the
// user must act on this item themselves".
const ExecutorUser = "user"

// Item is the unit of session content. It is a tagged union: Kind selects
// which of the variant fields are meaningful. Knowledge items may carry Refs
// (weak references to other item ids); work items carry Executor and Status.
//
// For file-sourced knowledge, Content holds the file's path, never its
// bytes. The file body is resolved at render or execution time so psyches
// always see the current on-disk state.
type Item struct {
	ID         int        `json:"id"`
	Kind       ItemKind   `json:"kind"`
	SourceType SourceType `json:"source_type"`
	SourceName string     `json:"source_name"`
	Content    string     `json:"content"`
	Collapsed  bool       `json:"collapsed"`
	Error      string     `json:"error,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`

	// Knowledge only. Weak references: dangling ids are pruned when the
	// referent is removed, never treated as fatal.
	Refs []int `json:"refs,omitempty"`

	// Work only.
	Executor string     `json:"executor,omitempty"`
	Status   WorkStatus `json:"status,omitempty"`
}

// IsFileKnowledge reports whether the item is knowledge backed by a file path.
func (it Item) IsFileKnowledge() bool {
	return it.Kind == KindKnowledge && it.SourceType == SourceFile
}

// Draft is an item whose id has not been assigned yet. Extractors and tools
// produce drafts; only Session.Add mints ids.
type Draft struct {
	Kind       ItemKind
	SourceType SourceType
	SourceName string
	Content    string
	Collapsed  bool
	Refs       []int
	Executor   string
}

// KnowledgeDraft builds a knowledge draft.
func KnowledgeDraft(sourceType SourceType, sourceName, content string, collapsed bool) Draft {
	return Draft{
		Kind:       KindKnowledge,
		SourceType: sourceType,
		SourceName: sourceName,
		Content:    content,
		Collapsed:  collapsed,
	}
}

// WorkDraft builds a work draft targeting the named executor.
func WorkDraft(sourceType SourceType, sourceName, executor, content string) Draft {
	return Draft{
		Kind:       KindWork,
		SourceType: sourceType,
		SourceName: sourceName,
		Executor:   executor,
		Content:    content,
	}
}
