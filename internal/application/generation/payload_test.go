package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "json code fence",
			input: "```json\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "anonymous code fence",
			input: "```\n[1,2]\n```",
			want:  `[1,2]`,
		},
		{
			name:  "prose around object",
			input: "Here is the result:\n{\"a\":1}\nLet me know if you need more.",
			want:  `{"a":1}`,
		},
		{
			name:  "array before object",
			input: `[{"a":1}] trailing`,
			want:  `[{"a":1}]`,
		},
		{
			name:  "no json at all",
			input: "sorry, I cannot help",
			want:  "sorry, I cannot help",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(ExtractJSON(tt.input)))
		})
	}
}

func TestDecodeObject(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	err := DecodeObject("```json\n{\"name\":\"aspirin\"}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "aspirin", out.Name)

	err = DecodeObject("not json", &out)
	assert.Error(t, err)
}

type item struct {
	Name string `json:"name"`
}

func TestDecodeList(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		items, err := DecodeList[item](`[{"name":"a"},{"name":"b"}]`)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("fenced array", func(t *testing.T) {
		items, err := DecodeList[item]("```json\n[{\"name\":\"a\"}]\n```")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("alternate key wrapper", func(t *testing.T) {
		items, err := DecodeList[item](`{"items":[{"name":"a"}]}`, "insights", "items")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "a", items[0].Name)
	})

	t.Run("single array valued object with unknown key", func(t *testing.T) {
		items, err := DecodeList[item](`{"whatever":[{"name":"a"}]}`, "items")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("multiple unknown keys fails", func(t *testing.T) {
		_, err := DecodeList[item](`{"x":[],"y":[]}`, "items")
		assert.Error(t, err)
	})

	t.Run("not json fails", func(t *testing.T) {
		_, err := DecodeList[item]("nope", "items")
		assert.Error(t, err)
	})
}
