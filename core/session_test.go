package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionAddAssignsMonotonicIDs(t *testing.T) {
	s := NewSession("ws")

	a := s.Add(KnowledgeDraft(SourceUser, "user", "first", false))
	b := s.Add(WorkDraft(SourceUser, "user", "file_read", "main.go"))
	c := s.Add(KnowledgeDraft(SourceUser, "user", "third", true))

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.Equal(t, 3, c.ID)
	assert.Equal(t, 4, s.NextID)
	assert.Equal(t, StatusCold, b.Status)
}

func TestSessionIDsNeverReused(t *testing.T) {
	s := NewSession("ws")
	s.Add(KnowledgeDraft(SourceUser, "user", "a", false))
	b := s.Add(KnowledgeDraft(SourceUser, "user", "b", false))

	_, ok := s.Remove(b.ID)
	assert.True(t, ok)

	c := s.Add(KnowledgeDraft(SourceUser, "user", "c", false))
	assert.Equal(t, 3, c.ID)

	// nextID stays strictly greater than every live id.
	for _, it := range s.Snapshot() {
		assert.Less(t, it.ID, s.NextID)
	}
}

func TestSessionRemovePrunesReferences(t *testing.T) {
	s := NewSession("ws")
	a := s.Add(KnowledgeDraft(SourceUser, "user", "base", false))
	b := s.Add(KnowledgeDraft(SourceUser, "user", "other", false))

	d := KnowledgeDraft(SourcePsyche, "scribe", "annotation", true)
	d.Refs = []int{a.ID, b.ID}
	annot := s.Add(d)

	_, ok := s.Remove(a.ID)
	assert.True(t, ok)

	got, ok := s.Item(annot.ID)
	assert.True(t, ok)
	assert.Equal(t, []int{b.ID}, got.Refs)

	// Removing the last referent leaves no dangling ids behind.
	s.Remove(b.ID)
	got, _ = s.Item(annot.ID)
	assert.Empty(t, got.Refs)
}

func TestSessionSnapshotUnaffectedByLaterRemoval(t *testing.T) {
	s := NewSession("ws")
	a := s.Add(KnowledgeDraft(SourceUser, "user", "a", false))
	b := s.Add(KnowledgeDraft(SourceUser, "user", "b", false))
	c := s.Add(KnowledgeDraft(SourceUser, "user", "c", false))

	d := KnowledgeDraft(SourcePsyche, "scribe", "annotation", true)
	d.Refs = []int{a.ID, b.ID, c.ID}
	annot := s.Add(d)

	snap := s.Snapshot()
	held, _ := s.Item(annot.ID)

	// Pruning after the snapshot must not show through either handed-out copy.
	s.Remove(b.ID)

	assert.Equal(t, []int{1, 2, 3}, snap[3].Refs)
	assert.Equal(t, []int{1, 2, 3}, held.Refs)

	got, _ := s.Item(annot.ID)
	assert.Equal(t, []int{1, 3}, got.Refs)
}

func TestSessionRemoveUnknownID(t *testing.T) {
	s := NewSession("ws")
	_, ok := s.Remove(42)
	assert.False(t, ok)
}

func TestSessionStatusTransitions(t *testing.T) {
	s := NewSession("ws")
	w := s.Add(WorkDraft(SourcePsyche, "planner", "file_read", "go.mod"))
	k := s.Add(KnowledgeDraft(SourceUser, "user", "note", false))

	assert.True(t, s.SetStatus(w.ID, StatusRunning, ""))
	assert.True(t, s.SetStatus(w.ID, StatusFailed, "boom"))

	got, _ := s.Item(w.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	// Knowledge items have no status machine.
	assert.False(t, s.SetStatus(k.ID, StatusDone, ""))
}

func TestSessionCostIsMonotone(t *testing.T) {
	s := NewSession("ws")
	s.AddCost(10)
	s.AddCost(-5)
	s.AddCost(0)
	s.AddCost(7)
	assert.Equal(t, 17, s.Cost())
}

func TestSessionWorkerSlots(t *testing.T) {
	s := NewSession("ws")
	s.SetWorkerOutput("scribe", "raw text")
	s.EnsureWorkerSlots([]string{"scribe", "planner", "critic"})

	assert.Equal(t, "raw text", s.WorkerOutput("scribe"))
	assert.Equal(t, "", s.WorkerOutput("planner"))
	assert.Contains(t, s.WorkerOutputs, "critic")
}

func TestSessionHasFileKnowledge(t *testing.T) {
	s := NewSession("ws")
	s.Add(KnowledgeDraft(SourceFile, "main.go", "main.go", true))

	assert.True(t, s.HasFileKnowledge("main.go"))
	assert.False(t, s.HasFileKnowledge("other.go"))
}

func TestSessionCloneIsIndependent(t *testing.T) {
	s := NewSession("ws")
	d := KnowledgeDraft(SourceUser, "user", "a", false)
	d.Refs = []int{99}
	s.Add(d)
	s.SetWorkerOutput("scribe", "x")

	clone := s.Clone()
	clone.Add(KnowledgeDraft(SourceUser, "user", "b", false))
	clone.SetWorkerOutput("scribe", "y")
	clone.Items[0].Refs[0] = 1

	assert.Len(t, s.Snapshot(), 1)
	assert.Equal(t, "x", s.WorkerOutput("scribe"))
	assert.Equal(t, []int{99}, s.Items[0].Refs)
}
