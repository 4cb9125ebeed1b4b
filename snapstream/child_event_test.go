package snapstream_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/snapshot-streams-go/snapstream"
)

func Test_ChildEventType_String(t *testing.T) {
	assert.Equal(t, "added", snapstream.ChildAdded.String())
	assert.Equal(t, "changed", snapstream.ChildChanged.String())
	assert.Equal(t, "removed", snapstream.ChildRemoved.String())
	assert.Equal(t, "moved", snapstream.ChildMoved.String())
	assert.Equal(t, "unknown", snapstream.ChildEventType(42).String())
}

func Test_NewRemovedChildEvent_HasNoPreviousKey(t *testing.T) {
	// act
	event := snapstream.NewRemovedChildEvent("b1", 7)

	// assert
	assert.Equal(t, "b1", event.Key)
	assert.Equal(t, 7, event.Value)
	assert.Empty(t, event.PreviousKey)
	assert.Equal(t, snapstream.ChildRemoved, event.Type)
}

func Test_Equal_IgnoresKey(t *testing.T) {
	// arrange
	a := snapstream.NewChildEvent("b1", "DDD", "b0", snapstream.ChildAdded)
	b := snapstream.NewChildEvent("b2", "DDD", "b0", snapstream.ChildAdded)

	// act & assert
	assert.True(t, snapstream.Equal(a, b), "events for different children with equal values are equal")
	assert.NotEqual(t, a, b, "the events themselves still differ by key")
}

func Test_Equal_ComparesTypeValueAndPreviousKey(t *testing.T) {
	base := snapstream.NewChildEvent("b1", "DDD", "b0", snapstream.ChildAdded)

	tests := []struct {
		name  string
		other snapstream.ChildEvent[string]
	}{
		{name: "other type", other: snapstream.NewChildEvent("b1", "DDD", "b0", snapstream.ChildChanged)},
		{name: "other value", other: snapstream.NewChildEvent("b1", "IDDD", "b0", snapstream.ChildAdded)},
		{name: "other previous key", other: snapstream.NewChildEvent("b1", "DDD", "", snapstream.ChildAdded)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, snapstream.Equal(base, tc.other))
			assert.False(t, snapstream.Equal(tc.other, base))
		})
	}
}

func Test_DeepEqual_ComparesNonComparableValues(t *testing.T) {
	// arrange
	a := snapstream.NewChildEvent("b1", []string{"x", "y"}, "", snapstream.ChildChanged)
	b := snapstream.NewChildEvent("b9", []string{"x", "y"}, "", snapstream.ChildChanged)
	c := snapstream.NewChildEvent("b1", []string{"x"}, "", snapstream.ChildChanged)

	// act & assert
	assert.True(t, snapstream.DeepEqual(a, b))
	assert.False(t, snapstream.DeepEqual(a, c))
}

func Test_EqualFunc_UsesTheGivenComparison(t *testing.T) {
	// arrange
	a := snapstream.NewChildEvent("b1", 10, "", snapstream.ChildMoved)
	b := snapstream.NewChildEvent("b1", 11, "", snapstream.ChildMoved)
	sameParity := func(x, y int) bool { return x%2 == y%2 }

	// act & assert
	assert.False(t, snapstream.EqualFunc(a, b, sameParity))
	assert.True(t, snapstream.EqualFunc(a, snapstream.NewChildEvent("b2", 12, "", snapstream.ChildMoved), sameParity))
}
