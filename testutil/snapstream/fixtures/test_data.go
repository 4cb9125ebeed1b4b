package fixtures

import (
	"strconv"

	"github.com/AntonStoeckl/snapshot-streams-go/snapstream/jsonsnapshot"
)

// TestData is the smallest decodable value.
type TestData struct {
	ID int `json:"id"`
}

// TestDataSnapshot returns the snapshot of a TestData stored under key.
func TestDataSnapshot(key string, id int) *jsonsnapshot.Snapshot {
	return jsonsnapshot.MustParse(key, `{"id": `+strconv.Itoa(id)+`}`)
}
