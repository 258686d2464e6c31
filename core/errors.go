package core

import "errors"

// Configuration errors indicate a broken deployment rather than a transient
// condition. They are returned to the caller unrecovered and never retried.
var (
	// ErrUnknownPsyche is returned when a psyche name resolves to nothing.
	ErrUnknownPsyche = errors.New("unknown psyche")
	// ErrUnknownModel is returned when a psyche references a model id that
	// has no registered capability.
	ErrUnknownModel = errors.New("unknown model")
	// ErrUnknownTool is returned when no registered tool can handle a work item.
	ErrUnknownTool = errors.New("no tool for executor")
	// ErrSessionNotFound is returned by stores when no document exists for a
	// workspace name.
	ErrSessionNotFound = errors.New("session not found")
)

// FileProvider resolves a relative path to UTF-8 text. Absence is non-fatal:
// callers substitute a placeholder and continue.
type FileProvider interface {
	Resolve(path string) (string, error)
}
