package session

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/weavehq/weave/core"
)

// The stored document is the session's own JSON shape plus the two legacy
// arrays older documents used before knowledge and work were unified into a
// single ordered item sequence. Decoding upgrades in place: legacy entries
// are merged by ascending id, a missing id counter is rebuilt as max+1, and
// the worker output map is materialized so the session contract ("one slot
// per known psyche") holds from the first access.

type document struct {
	WorkspaceName   string            `json:"workspace_name"`
	Items           []core.Item       `json:"items"`
	NextID          int               `json:"next_id"`
	WorkerOutputs   map[string]string `json:"worker_outputs"`
	AccumulatedCost int               `json:"accumulated_cost"`
	InputDraft      string            `json:"input_draft"`

	// Legacy split-array format. Present only in old documents.
	LegacyKnowledges []legacyKnowledge `json:"knowledges,omitempty"`
	LegacyWorks      []legacyWork      `json:"works,omitempty"`
}

type legacyKnowledge struct {
	ID         int    `json:"id"`
	SourceType string `json:"source_type"`
	SourceName string `json:"source_name"`
	Content    string `json:"content"`
	Collapsed  bool   `json:"collapsed"`
	Refs       []int  `json:"refs,omitempty"`
}

type legacyWork struct {
	ID         int    `json:"id"`
	SourceType string `json:"source_type"`
	SourceName string `json:"source_name"`
	Executor   string `json:"executor"`
	Content    string `json:"content"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// encodeSession marshals the session to its stored JSON document.
func encodeSession(sess *core.Session) ([]byte, error) {
	snapshot := sess.Clone()
	doc := document{
		WorkspaceName:   snapshot.WorkspaceName,
		Items:           snapshot.Items,
		NextID:          snapshot.NextID,
		WorkerOutputs:   snapshot.WorkerOutputs,
		AccumulatedCost: snapshot.AccumulatedCost,
		InputDraft:      snapshot.InputDraft,
	}
	return json.Marshal(doc)
}

// decodeSession unmarshals a stored document, upgrading legacy shapes.
func decodeSession(workspace string, data []byte) (*core.Session, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("session document for %s: %w", workspace, err)
	}

	items := doc.Items
	if items == nil {
		items = mergeLegacy(doc.LegacyKnowledges, doc.LegacyWorks)
	}

	nextID := doc.NextID
	if nextID <= 0 {
		nextID = 1
		for _, it := range items {
			if it.ID >= nextID {
				nextID = it.ID + 1
			}
		}
	}

	outputs := doc.WorkerOutputs
	if outputs == nil {
		outputs = map[string]string{}
	}

	name := doc.WorkspaceName
	if name == "" {
		name = workspace
	}

	return &core.Session{
		WorkspaceName:   name,
		Items:           items,
		NextID:          nextID,
		WorkerOutputs:   outputs,
		AccumulatedCost: doc.AccumulatedCost,
		InputDraft:      doc.InputDraft,
	}, nil
}

// mergeLegacy interleaves the split arrays back into one sequence ordered by
// id, which matches insertion order in every legacy document.
func mergeLegacy(knowledges []legacyKnowledge, works []legacyWork) []core.Item {
	items := make([]core.Item, 0, len(knowledges)+len(works))
	for _, k := range knowledges {
		items = append(items, core.Item{
			ID:         k.ID,
			Kind:       core.KindKnowledge,
			SourceType: legacySourceType(k.SourceType),
			SourceName: k.SourceName,
			Content:    k.Content,
			Collapsed:  k.Collapsed,
			Refs:       k.Refs,
		})
	}
	for _, w := range works {
		status := core.WorkStatus(w.Status)
		if status == "" {
			status = core.StatusCold
		}
		items = append(items, core.Item{
			ID:         w.ID,
			Kind:       core.KindWork,
			SourceType: legacySourceType(w.SourceType),
			SourceName: w.SourceName,
			Content:    w.Content,
			Executor:   w.Executor,
			Status:     status,
			Error:      w.Error,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func legacySourceType(s string) core.SourceType {
	if s == "" {
		return core.SourceUser
	}
	return core.SourceType(s)
}
