package domain

import "time"

// KeyPrefix namespaces every key this service writes to the store.
const KeyPrefix = "statista:"

// Document is a statistical record in the index. Owned by the index store;
// the retrieval core only reads it.
type Document struct {
	ID             string
	Title          string
	Subject        string
	Description    string
	Link           string
	Date           time.Time
	TeaserImageURL string // optional
}
