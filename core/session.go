package core

import (
	"sync"
	"time"
)

// Session is the full in-memory state of one working context: an ordered item
// sequence, the id counter, each psyche's most recent raw output, accumulated
// spend and the user's unsent input draft. It is safe for concurrent reads;
// mutations are expected from a single logical writer (the workspace), each
// followed by persistence before the next mutation is accepted.
//
// Contract:
//   - Every item id is unique and < NextID; ids are never reused or
//     renumbered after deletions.
//   - Removing an item prunes it from every remaining knowledge item's Refs.
//   - WorkerOutputs holds one slot per known psyche, created empty at load.
//   - AccumulatedCost only increases.
type Session struct {
	WorkspaceName   string            `json:"workspace_name"`
	Items           []Item            `json:"items"`
	NextID          int               `json:"next_id"`
	WorkerOutputs   map[string]string `json:"worker_outputs"`
	AccumulatedCost int               `json:"accumulated_cost"`
	InputDraft      string            `json:"input_draft"`

	mu sync.RWMutex
}

// NewSession creates an empty session for the named workspace.
func NewSession(workspaceName string) *Session {
	return &Session{
		WorkspaceName: workspaceName,
		Items:         []Item{},
		NextID:        1,
		WorkerOutputs: map[string]string{},
	}
}

// Add mints an id for the draft, appends the resulting item and returns it.
// This is the only way items enter a session.
func (s *Session) Add(d Draft) Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := Item{
		ID:         s.NextID,
		Kind:       d.Kind,
		SourceType: d.SourceType,
		SourceName: d.SourceName,
		Content:    d.Content,
		Collapsed:  d.Collapsed,
		Timestamp:  time.Now().UTC(),
	}
	switch d.Kind {
	case KindKnowledge:
		if len(d.Refs) > 0 {
			it.Refs = append([]int{}, d.Refs...)
		}
	case KindWork:
		it.Executor = d.Executor
		it.Status = StatusCold
	}
	s.NextID++
	s.Items = append(s.Items, it)
	return it
}

// Remove deletes the item with the given id and prunes it from every other
// item's reference set. It reports whether the item existed.
func (s *Session) Remove(id int) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return Item{}, false
	}
	removed := s.Items[idx]
	s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
	for i := range s.Items {
		s.Items[i].Refs = pruneRef(s.Items[i].Refs, id)
	}
	return removed, true
}

// Item returns the item with the given id, if present.
func (s *Session) Item(id int) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.Items[idx], true
	}
	return Item{}, false
}

// Snapshot returns a defensive copy of the item sequence in insertion order.
// Reference slices are copied too; later mutations never show through.
func (s *Session) Snapshot() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, len(s.Items))
	copy(items, s.Items)
	for i := range items {
		if items[i].Refs != nil {
			items[i].Refs = append([]int{}, items[i].Refs...)
		}
	}
	return items
}

// HasFileKnowledge reports whether a knowledge item already references the
// given path. Re-adding a file that is already in context is a no-op at the
// workspace level; this is the guard it uses.
func (s *Session) HasFileKnowledge(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.Items {
		if it.IsFileKnowledge() && it.Content == path {
			return true
		}
	}
	return false
}

// SetStatus transitions a work item's status and records the last failure
// message (empty clears it). Unknown ids and knowledge items are ignored.
func (s *Session) SetStatus(id int, status WorkStatus, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 || s.Items[idx].Kind != KindWork {
		return false
	}
	s.Items[idx].Status = status
	s.Items[idx].Error = errMsg
	return true
}

// ToggleCollapsed flips the display hint on an item.
func (s *Session) ToggleCollapsed(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.Items[idx].Collapsed = !s.Items[idx].Collapsed
	return true
}

// SetInputDraft stores the user's in-progress unsent text.
func (s *Session) SetInputDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InputDraft = text
}

// AddCost adds spent tokens to the session total. Non-positive deltas are
// ignored so the counter stays monotone.
func (s *Session) AddCost(tokens int) {
	if tokens <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AccumulatedCost += tokens
}

// Cost returns the accumulated spend.
func (s *Session) Cost() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AccumulatedCost
}

// SetWorkerOutput records a psyche's most recent raw response text.
func (s *Session) SetWorkerOutput(psyche, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WorkerOutputs == nil {
		s.WorkerOutputs = map[string]string{}
	}
	s.WorkerOutputs[psyche] = raw
}

// WorkerOutput returns the most recent raw response of the named psyche.
func (s *Session) WorkerOutput(psyche string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.WorkerOutputs[psyche]
}

// EnsureWorkerSlots creates an empty output slot for every named psyche that
// does not have one yet. Called at session load with the known psyche set.
func (s *Session) EnsureWorkerSlots(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WorkerOutputs == nil {
		s.WorkerOutputs = map[string]string{}
	}
	for _, n := range names {
		if _, ok := s.WorkerOutputs[n]; !ok {
			s.WorkerOutputs[n] = ""
		}
	}
}

// Clone returns a deep copy safe for independent mutation. Stores use it to
// avoid handing out shared internals.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		WorkspaceName:   s.WorkspaceName,
		Items:           make([]Item, len(s.Items)),
		NextID:          s.NextID,
		WorkerOutputs:   make(map[string]string, len(s.WorkerOutputs)),
		AccumulatedCost: s.AccumulatedCost,
		InputDraft:      s.InputDraft,
	}
	for i, it := range s.Items {
		clone.Items[i] = it
		if it.Refs != nil {
			clone.Items[i].Refs = append([]int{}, it.Refs...)
		}
	}
	for k, v := range s.WorkerOutputs {
		clone.WorkerOutputs[k] = v
	}
	return clone
}

// indexLocked returns the slice index of the item with the given id, or -1.
// Caller must hold at least a read lock.
func (s *Session) indexLocked(id int) int {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// pruneRef returns refs without id. It always allocates a fresh slice so
// previously handed-out items keep their reference lists intact.
func pruneRef(refs []int, id int) []int {
	if len(refs) == 0 {
		return refs
	}
	out := make([]int, 0, len(refs))
	for _, r := range refs {
		if r != id {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
