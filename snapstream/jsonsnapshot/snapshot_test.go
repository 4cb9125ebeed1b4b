package jsonsnapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/snapshot-streams-go/snapstream"
	"github.com/AntonStoeckl/snapshot-streams-go/snapstream/jsonsnapshot"
)

func childKeys(snapshot snapstream.Snapshot) []string {
	keys := make([]string, 0)
	for child := range snapshot.Children() {
		keys = append(keys, child.Key())
	}

	return keys
}

func Test_Parse_ObjectChildrenKeepDocumentOrder(t *testing.T) {
	// act
	snapshot, err := jsonsnapshot.Parse("books", []byte(`{"zeta": {"title": "Z"}, "alpha": {"title": "A"}, "mid": 3}`))

	// assert
	require.NoError(t, err)
	assert.True(t, snapshot.Exists())
	assert.Equal(t, "books", snapshot.Key())
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, childKeys(snapshot))
	assert.Equal(t, 3, snapshot.ChildrenCount())
}

func Test_Parse_ArrayElementsAreKeyedByIndex(t *testing.T) {
	// act
	snapshot, err := jsonsnapshot.Parse("list", []byte(`["a", null, "c"]`))

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "2"}, childKeys(snapshot), "null elements are absent but keep their index")
}

func Test_Parse_AbsentValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty document", data: ""},
		{name: "whitespace only", data: "  \n "},
		{name: "null", data: "null"},
		{name: "empty object", data: "{}"},
		{name: "empty array", data: "[]"},
		{name: "object with only null fields", data: `{"a": null, "b": {}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			snapshot, err := jsonsnapshot.Parse("key", []byte(tc.data))

			// assert
			require.NoError(t, err)
			assert.False(t, snapshot.Exists())
			assert.Equal(t, "key", snapshot.Key())
			assert.Nil(t, snapshot.Value())
			assert.Nil(t, snapshot.RawJSON())
			assert.Empty(t, childKeys(snapshot))
		})
	}
}

func Test_Parse_InvalidJSON(t *testing.T) {
	// act
	snapshot, err := jsonsnapshot.Parse("key", []byte(`{"a": `))

	// assert
	assert.ErrorIs(t, err, jsonsnapshot.ErrInvalidJSON)
	assert.Nil(t, snapshot)
}

func Test_Snapshot_Value_ReturnsGenericValues(t *testing.T) {
	// arrange
	snapshot := jsonsnapshot.MustParse("", `{"title": "DDD", "year": 2003, "available": true, "tags": ["a", "b"]}`)

	// act
	value := snapshot.Value()

	// assert
	assert.Equal(t, map[string]any{
		"title":     "DDD",
		"year":      float64(2003),
		"available": true,
		"tags":      []any{"a", "b"},
	}, value)
	assert.Equal(t, "", snapshot.Key(), "the root has an empty key")
}

func Test_Snapshot_Child_ResolvesPaths(t *testing.T) {
	// arrange
	snapshot := jsonsnapshot.MustParse("", `{"books": {"b1": {"title": "DDD"}}}`)

	// act
	title := snapshot.Child("/books/b1/title")
	missing := snapshot.Child("books/b2")

	// assert
	assert.True(t, title.Exists())
	assert.Equal(t, "title", title.Key())
	assert.Equal(t, "DDD", title.Value())
	assert.JSONEq(t, `"DDD"`, string(title.RawJSON()))

	assert.False(t, missing.Exists())
	assert.Equal(t, "b2", missing.Key())

	assert.Same(t, snapshot, snapshot.Child(""), "an empty path is the node itself")
}

func Test_Snapshot_RawJSON_OfChildrenIsTrimmed(t *testing.T) {
	// arrange
	snapshot := jsonsnapshot.MustParse("", `{ "a" :  { "x" : 1 } , "b":[ 1 ]}`)

	// act
	a := snapshot.Child("a")
	b := snapshot.Child("b")

	// assert
	assert.JSONEq(t, `{"x": 1}`, string(a.RawJSON()))
	assert.Equal(t, byte('{'), a.RawJSON()[0])
	assert.JSONEq(t, `[1]`, string(b.RawJSON()))
}

func Test_Parse_DoesNotAliasInput(t *testing.T) {
	// arrange
	data := []byte(`{"a": 1}`)
	snapshot, err := jsonsnapshot.Parse("", data)
	require.NoError(t, err)

	// act
	copy(data, `{"b": 2}`)

	// assert
	assert.JSONEq(t, `{"a": 1}`, string(snapshot.RawJSON()))
}

func Test_FromValue(t *testing.T) {
	// arrange
	type book struct {
		Title string `json:"title"`
	}

	// act
	snapshot, err := jsonsnapshot.FromValue("b1", book{Title: "DDD"})
	unsupported, unsupportedErr := jsonsnapshot.FromValue("ch", make(chan int))

	// assert
	require.NoError(t, err)
	assert.Equal(t, "b1", snapshot.Key())
	assert.Equal(t, []string{"title"}, childKeys(snapshot))

	assert.ErrorIs(t, unsupportedErr, jsonsnapshot.ErrInvalidJSON)
	assert.Nil(t, unsupported)
}

func Test_Snapshot_Children_StopsWhenYieldReturnsFalse(t *testing.T) {
	// arrange
	snapshot := jsonsnapshot.MustParse("", `{"a": 1, "b": 2, "c": 3}`)

	// act
	visited := 0
	for range snapshot.Children() {
		visited++
		if visited == 2 {
			break
		}
	}

	// assert
	assert.Equal(t, 2, visited)
}

func Test_MustParse_PanicsOnInvalidJSON(t *testing.T) {
	assert.Panics(t, func() { jsonsnapshot.MustParse("", "{") })
}
