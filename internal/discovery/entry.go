package discovery

import "strings"

// Entry is one selectable item.
type Entry struct {
	// ID is the value acted upon (user name, session slug, locale code).
	ID string
	// Label is what the picker shows.
	Label string
}

// String returns the label, or the ID when no label is set.
func (e Entry) String() string {
	if e.Label != "" {
		return e.Label
	}
	return e.ID
}

// Find returns the index of the entry whose ID or label equals name,
// ignoring case, or -1.
func Find(entries []Entry, name string) int {
	name = strings.TrimSpace(name)
	for i, e := range entries {
		if strings.EqualFold(e.ID, name) || strings.EqualFold(e.Label, name) {
			return i
		}
	}
	return -1
}

func entriesOf(ids []string) []Entry {
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{ID: id, Label: id}
	}
	return out
}
