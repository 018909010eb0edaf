package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/statecraft/pkg/adapters/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reviewYAML = `
name: Document Review
description: Simple approval flow
states:
  - id: draft
    name: Draft
    initial: true
  - id: review
    name: In Review
  - id: done
    name: Done
    final: true
actions:
  - id: submit
    name: Submit
    from: [draft]
    to: review
  - id: approve
    name: Approve
    from: [review]
    to: done
  - id: shortcut
    name: Shortcut
    enabled: false
    from: [draft]
    to: done
`

const reviewJSON = `{
  "name": "Document Review",
  "states": [
    {"id": "draft", "name": "Draft", "isInitial": true},
    {"id": "done", "name": "Done", "isFinal": true, "enabled": false}
  ],
  "actions": [
    {"id": "finish", "name": "Finish", "fromStates": ["draft"], "toState": "done"}
  ]
}`

func TestDecode_YAML(t *testing.T) {
	spec, err := file.Decode([]byte(reviewYAML), file.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "Document Review", spec.Name)
	require.Len(t, spec.States, 3)
	assert.True(t, spec.States[0].IsInitial)
	assert.True(t, spec.States[0].Enabled, "omitted enabled defaults to true")
	assert.True(t, spec.States[2].IsFinal)

	require.Len(t, spec.Actions, 3)
	assert.Equal(t, []string{"draft"}, spec.Actions[0].FromStates)
	assert.Equal(t, "review", spec.Actions[0].ToState)
	assert.True(t, spec.Actions[0].Enabled)
	assert.False(t, spec.Actions[2].Enabled)
}

func TestDecode_JSON(t *testing.T) {
	spec, err := file.Decode([]byte(reviewJSON), file.FormatJSON)
	require.NoError(t, err)

	require.Len(t, spec.States, 2)
	assert.True(t, spec.States[0].IsInitial)
	assert.False(t, spec.States[1].Enabled)
	assert.Equal(t, "done", spec.Actions[0].ToState)
	assert.True(t, spec.Actions[0].Enabled)
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	_, err := file.Decode([]byte("name: x\nstates:\n  - id: a\n    inital: true\n"), file.FormatYAML)
	assert.Error(t, err)

	_, err = file.Decode([]byte(`{"name":"x","stat":[]}`), file.FormatJSON)
	assert.Error(t, err)
}

func TestDecode_EmptyYAML(t *testing.T) {
	spec, err := file.Decode(nil, file.FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, spec.Name)
	assert.Empty(t, spec.States)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b-review.yaml"), []byte(reviewYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-finish.json"), []byte(reviewJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# flows"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	docs, err := file.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, filepath.Join(dir, "a-finish.json"), docs[0].Path)
	assert.Len(t, docs[0].Spec.States, 2)
	assert.Len(t, docs[1].Spec.States, 3)
}

func TestLoadDefinition_UnsupportedExtension(t *testing.T) {
	_, err := file.LoadDefinition("flow.toml")
	assert.ErrorIs(t, err, file.ErrUnsupportedFormat)
}
