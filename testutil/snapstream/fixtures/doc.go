// Package fixtures contains a small library domain and snapshot builders for snapstream tests.
//
// Books are stored under "books/<bookID>" the way a realtime database would hold them.
package fixtures
