package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavehq/weave/core"
)

const validYAML = `
workspace: demo
root: ./project
models:
  - id: fast
    provider: anthropic
    name: claude-haiku
    temperature: 0.3
    max_tokens: 4096
  - id: deep
    provider: openai
    name: gpt-5
psyches:
  - name: planner
    display_name: Planner
    model: fast
    token_budget: 2000
    system_text: Plan the work.
    terminators: ["DONE"]
    chain:
      successor: critic
      max_depth: 2
  - name: critic
    model: deep
    token_budget: 4000
    awareness:
      items: knowledge
      parent_output: true
`

func TestParseValid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Workspace)
	require.Len(t, cfg.Models, 2)
	require.Len(t, cfg.Psyches, 2)

	planner := cfg.Psyches[0]
	assert.Equal(t, "fast", planner.ModelID)
	assert.Equal(t, []string{"DONE"}, planner.Terminators)
	require.NotNil(t, planner.Chain)
	assert.Equal(t, "critic", planner.Chain.Successor)
	assert.Equal(t, 2, planner.Chain.MaxDepth)
	// No awareness override: the default applies at run time.
	assert.Nil(t, planner.Awareness)

	critic := cfg.Psyches[1]
	require.NotNil(t, critic.Awareness)
	assert.Equal(t, core.ItemsKnowledge, critic.Awareness.Items)
	assert.True(t, critic.Awareness.ParentOutput)
	assert.False(t, critic.Awareness.ProjectTree)

	m, ok := cfg.Model("deep")
	require.True(t, ok)
	assert.Equal(t, "openai", m.Provider)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Workspace)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateUnknownModelRef(t *testing.T) {
	_, err := Parse([]byte(`
models:
  - id: fast
psyches:
  - name: planner
    model: missing
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model")
}

func TestValidateUnknownSuccessor(t *testing.T) {
	_, err := Parse([]byte(`
models:
  - id: fast
psyches:
  - name: planner
    model: fast
    chain:
      successor: ghost
      max_depth: 1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown psyche")
}

func TestValidateSuccessorCycle(t *testing.T) {
	_, err := Parse([]byte(`
models:
  - id: fast
psyches:
  - name: a
    model: fast
    chain: {successor: b, max_depth: 3}
  - name: b
    model: fast
    chain: {successor: a, max_depth: 3}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestValidateDuplicates(t *testing.T) {
	_, err := Parse([]byte(`
models:
  - id: fast
  - id: fast
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate model")

	_, err = Parse([]byte(`
models:
  - id: fast
psyches:
  - name: planner
    model: fast
  - name: planner
    model: fast
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate psyche")
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("models: [unclosed"))
	assert.Error(t, err)
}
