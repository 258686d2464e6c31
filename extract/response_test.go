package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavehq/weave/core"
)

func newTestResponder() *Responder {
	return NewResponder([]string{"file_read", "file_write"})
}

func TestExtractUncleanStopWrapsRaw(t *testing.T) {
	raw := "<knowledge>cut off mid-blo"
	drafts := newTestResponder().Extract(raw, false, "scribe")

	require.Len(t, drafts, 1)
	assert.Equal(t, core.KindKnowledge, drafts[0].Kind)
	assert.Equal(t, raw, drafts[0].Content)
	assert.False(t, drafts[0].Collapsed)
	assert.Equal(t, "scribe", drafts[0].SourceName)
}

func TestExtractKnowledgeBlocks(t *testing.T) {
	raw := "preamble\n<knowledge>\nX\n</knowledge>\ntrailer"
	drafts := newTestResponder().Extract(raw, true, "scribe")

	require.Len(t, drafts, 1)
	assert.Equal(t, core.KindKnowledge, drafts[0].Kind)
	assert.Equal(t, "X", drafts[0].Content)
	assert.True(t, drafts[0].Collapsed)
	assert.Equal(t, core.SourcePsyche, drafts[0].SourceType)
}

func TestExtractWorkWithTarget(t *testing.T) {
	raw := "<work><target>file_write</target>BODY</work>"
	drafts := newTestResponder().Extract(raw, true, "planner")

	require.Len(t, drafts, 1)
	assert.Equal(t, core.KindWork, drafts[0].Kind)
	assert.Equal(t, "file_write", drafts[0].Executor)
	assert.Equal(t, "BODY", drafts[0].Content)
}

func TestExtractWorkWithoutTargetDefaults(t *testing.T) {
	drafts := newTestResponder().Extract("<work>do the thing</work>", true, "planner")

	require.Len(t, drafts, 1)
	assert.Equal(t, DefaultExecutor, drafts[0].Executor)
	assert.Equal(t, "do the thing", drafts[0].Content)
}

func TestExtractWorkUserTarget(t *testing.T) {
	drafts := newTestResponder().Extract("<work><target>user</target>review this</work>", true, "planner")

	require.Len(t, drafts, 1)
	assert.Equal(t, core.ExecutorUser, drafts[0].Executor)
	assert.Equal(t, "review this", drafts[0].Content)
}

func TestExtractWorkUnlistedTargetKeptVerbatim(t *testing.T) {
	drafts := newTestResponder().Extract("<work><target>critic</target>judge this</work>", true, "planner")

	require.Len(t, drafts, 1)
	assert.Equal(t, "critic", drafts[0].Executor)
}

func TestExtractMixedBlocks(t *testing.T) {
	raw := "<knowledge>fact</knowledge>\n<work><target>file_read</target>main.go</work>\n<knowledge>another</knowledge>"
	drafts := newTestResponder().Extract(raw, true, "scribe")

	require.Len(t, drafts, 3)
	assert.Equal(t, core.KindKnowledge, drafts[0].Kind)
	assert.Equal(t, core.KindKnowledge, drafts[1].Kind)
	assert.Equal(t, core.KindWork, drafts[2].Kind)
	assert.Equal(t, "file_read", drafts[2].Executor)
}

func TestExtractNoTagsFallsBackToWrap(t *testing.T) {
	raw := "just prose with no recognized tags"
	drafts := newTestResponder().Extract(raw, true, "scribe")

	require.Len(t, drafts, 1)
	assert.Equal(t, raw, drafts[0].Content)
	assert.False(t, drafts[0].Collapsed)
}

// Extraction is total: any input and any stop classification yields at least
// one draft.
func TestExtractIsTotal(t *testing.T) {
	inputs := []string{"", "<work>", "</knowledge><knowledge>", "<target>x</target>", "plain"}
	for _, raw := range inputs {
		for _, clean := range []bool{true, false} {
			drafts := newTestResponder().Extract(raw, clean, "s")
			assert.NotEmpty(t, drafts, "raw=%q clean=%v", raw, clean)
		}
	}
}
