package notify

import "sync"

// List is the ordered, caller-mutable set of records for one page session.
// IDs are assigned on Append and strictly increase for the lifetime of the
// list, including across removals.
type List struct {
	mu     sync.Mutex
	nextID int64
	items  []Record
}

// NewList returns an empty list whose first record gets ID 1.
func NewList() *List {
	return &List{nextID: 1}
}

// Append assigns the next ID to r, appends it and returns the stored record.
func (l *List) Append(r Record) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	r.ID = l.nextID
	l.nextID++
	l.items = append(l.items, r)
	return r
}

// Items returns a copy of the records in insertion order.
func (l *List) Items() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, len(l.items))
	copy(out, l.items)
	return out
}

// Remove deletes the record with the given ID. It reports whether a record
// was removed.
func (l *List) Remove(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, r := range l.items {
		if r.ID == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every record and returns how many were removed.
func (l *List) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.items)
	l.items = nil
	return n
}

// Len returns the number of records.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
