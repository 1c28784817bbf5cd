package core_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/synclist/pkg/core"
)

func TestCodec_JSONShape(t *testing.T) {
	data, err := json.Marshal(core.Insert(1, "z"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"add","new_items":["z"],"new_index":1}`, string(data))

	data, err = json.Marshal(core.Move[string](0, 3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"move","new_index":3,"old_index":0}`, string(data))
}

func TestCodec_JSONDecode(t *testing.T) {
	var ev core.ChangeEvent[string]
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"remove","old_items":["",""],"old_index":1}`), &ev))

	assert.Equal(t, core.KindRemove, ev.Kind())
	assert.Equal(t, 1, ev.OldIndex())
	assert.Equal(t, core.Unspecified, ev.NewIndex())
	assert.Len(t, ev.OldItems(), 2)
}

func TestCodec_RejectsMalformed(t *testing.T) {
	var ev core.ChangeEvent[string]

	err := json.Unmarshal([]byte(`{"kind":"replace","old_items":["a","b"],"new_items":["x"]}`), &ev)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	err = json.Unmarshal([]byte(`{"kind":"explode"}`), &ev)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	err = yaml.Unmarshal([]byte("kind: move\nnew_index: 2\n"), &ev)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestCodec_YAML(t *testing.T) {
	src, err := core.ReplaceValues([]int{1, 2}, []int{10, 20})
	require.NoError(t, err)

	data, err := yaml.Marshal(src)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: replace")
	assert.NotContains(t, string(data), "old_index")

	var got core.ChangeEvent[int]
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, src.Kind(), got.Kind())
	assert.Equal(t, []int{1, 2}, got.OldItems())
	assert.Equal(t, []int{10, 20}, got.NewItems())
	assert.Equal(t, core.Unspecified, got.OldIndex())
}
