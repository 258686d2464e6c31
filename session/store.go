// Package session houses the concrete persistence backends for workspace
// sessions. The Store contract is load-by-workspace-name and save-whole-
// document: sessions are small, mutations are serialized by the workspace,
// and a full-document write after each mutation keeps every backend trivial
// to reason about. Backends never hand out shared internals; loads and saves
// go through Clone or the codec.
package session

import "github.com/weavehq/weave/core"

// Store persists sessions keyed by workspace name.
type Store interface {
	// Load returns the stored session for the workspace, or
	// core.ErrSessionNotFound when none has been saved yet.
	Load(workspace string) (*core.Session, error)
	// Save writes the full session document, replacing any previous one.
	Save(sess *core.Session) error
	// Delete removes the stored session. Deleting a missing session is not
	// an error.
	Delete(workspace string) error
}
