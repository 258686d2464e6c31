package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavehq/weave/core"
)

func TestDecodeRoundTrip(t *testing.T) {
	want := sampleSession(t)
	data, err := encodeSession(want)
	require.NoError(t, err)

	got, err := decodeSession("ws", data)
	require.NoError(t, err)
	assertSessionsEqual(t, want, got)
}

func TestDecodeLegacySplitArrays(t *testing.T) {
	legacy := []byte(`{
		"workspace_name": "old-ws",
		"knowledges": [
			{"id": 1, "content": "first fact", "collapsed": true},
			{"id": 4, "source_type": "file", "source_name": "main.go", "content": "main.go"}
		],
		"works": [
			{"id": 2, "executor": "file_write", "content": "a.md\nbody", "status": "done"},
			{"id": 3, "executor": "user", "content": "review", "error": "skipped", "status": "failed"}
		],
		"accumulated_cost": 7
	}`)

	sess, err := decodeSession("old-ws", legacy)
	require.NoError(t, err)

	// Merged back into one sequence ordered by id.
	require.Len(t, sess.Items, 4)
	ids := []int{sess.Items[0].ID, sess.Items[1].ID, sess.Items[2].ID, sess.Items[3].ID}
	assert.Equal(t, []int{1, 2, 3, 4}, ids)
	assert.Equal(t, core.KindKnowledge, sess.Items[0].Kind)
	assert.Equal(t, core.KindWork, sess.Items[1].Kind)
	assert.Equal(t, core.StatusDone, sess.Items[1].Status)
	assert.Equal(t, "skipped", sess.Items[2].Error)
	assert.True(t, sess.Items[3].IsFileKnowledge())

	// Counter rebuilt past the highest legacy id; outputs map materialized.
	assert.Equal(t, 5, sess.NextID)
	assert.NotNil(t, sess.WorkerOutputs)
	assert.Equal(t, 7, sess.AccumulatedCost)

	// Minting after migration continues from the rebuilt counter.
	added := sess.Add(core.KnowledgeDraft(core.SourceUser, "user", "new", false))
	assert.Equal(t, 5, added.ID)
}

func TestDecodeLegacyDefaultsStatusToCold(t *testing.T) {
	legacy := []byte(`{"works": [{"id": 1, "executor": "agent", "content": "x"}]}`)
	sess, err := decodeSession("ws", legacy)
	require.NoError(t, err)
	require.Len(t, sess.Items, 1)
	assert.Equal(t, core.StatusCold, sess.Items[0].Status)
	assert.Equal(t, core.SourceUser, sess.Items[0].SourceType)
}

func TestDecodeEmptyDocument(t *testing.T) {
	sess, err := decodeSession("fresh", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "fresh", sess.WorkspaceName)
	assert.Equal(t, 1, sess.NextID)
	assert.Empty(t, sess.Items)
}

func TestDecodeMalformedDocument(t *testing.T) {
	_, err := decodeSession("ws", []byte(`{broken`))
	assert.Error(t, err)
}
