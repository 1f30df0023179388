// Package feed models the train list pushed by the backend and renders it
// into display rows.
package feed

// Train is a reservation record as stored on the ledger.
type Train struct {
	Fname  string `json:"fname"`
	Gender string `json:"gender"`
	Place  string `json:"place"`
	Class  string `json:"class"`
	Status string `json:"status"`
}

// Entry is one item of the feed: either a keyed record or a keyed message.
type Entry struct {
	Key    string `json:"Key"`
	Record *Train `json:"Record,omitempty"`
	Msg    string `json:"Msg,omitempty"`
}

// MessageEntry builds a message-only entry.
func MessageEntry(key, msg string) Entry {
	return Entry{Key: key, Msg: msg}
}
