package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergePayloads_LocalFieldWins(t *testing.T) {
	local := map[string]any{"a": 1}
	remote := map[string]any{"a": 0, "b": 2}

	merged, conflicts := MergePayloads(local, remote)

	assert.Empty(t, conflicts)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, merged)
}

func TestMergePayloads_RemoteOnlyFieldKept(t *testing.T) {
	local := map[string]any{"dose": "10mg"}
	remote := map[string]any{"dose": "5mg", "prescriber": "dr_lee"}

	merged, conflicts := MergePayloads(local, remote)

	assert.Empty(t, conflicts)
	assert.Equal(t, "10mg", merged["dose"])
	assert.Equal(t, "dr_lee", merged["prescriber"])
}

func TestMergePayloads_NestedObjectsMergeRecursively(t *testing.T) {
	local := map[string]any{
		"schedule": map[string]any{"morning": true},
	}
	remote := map[string]any{
		"schedule": map[string]any{"morning": false, "evening": true},
	}

	merged, conflicts := MergePayloads(local, remote)

	assert.Empty(t, conflicts)
	assert.Equal(t, map[string]any{
		"schedule": map[string]any{"morning": true, "evening": true},
	}, merged)
}

func TestMergePayloads_DivergedListsEscalate(t *testing.T) {
	local := map[string]any{"tags": []any{"urgent"}}
	remote := map[string]any{"tags": []any{"routine"}}

	merged, conflicts := MergePayloads(local, remote)

	assert.Equal(t, []string{"tags"}, conflicts)
	// До ручного решения остается серверное значение
	assert.Equal(t, []any{"routine"}, merged["tags"])
}

func TestMergePayloads_EqualListsNoConflict(t *testing.T) {
	local := map[string]any{"tags": []any{"urgent"}}
	remote := map[string]any{"tags": []any{"urgent"}}

	merged, conflicts := MergePayloads(local, remote)

	assert.Empty(t, conflicts)
	assert.Equal(t, []any{"urgent"}, merged["tags"])
}

func TestMergePayloads_NestedConflictPath(t *testing.T) {
	local := map[string]any{
		"care": map[string]any{"visits": []any{"mon"}},
	}
	remote := map[string]any{
		"care": map[string]any{"visits": []any{"tue"}},
	}

	_, conflicts := MergePayloads(local, remote)

	assert.Equal(t, []string{"care.visits"}, conflicts)
}

func TestMergePayloads_ConflictListSorted(t *testing.T) {
	local := map[string]any{
		"z": []any{"1"},
		"a": []any{"2"},
	}
	remote := map[string]any{
		"z": []any{"9"},
		"a": []any{"8"},
	}

	_, conflicts := MergePayloads(local, remote)

	assert.Equal(t, []string{"a", "z"}, conflicts)
}
