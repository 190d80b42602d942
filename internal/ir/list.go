package ir

// EntryList is a doubly linked list of Entry nodes with a sentinel head and
// tail, giving O(1) InsertBefore/Erase and stable identity for every live
// Entry (spec §4.A). A node's address is used as a map key by analyses
// across edits; that key is only invalidated when the entry is erased.
type EntryList struct {
	head, tail *Entry // sentinels; never exposed to callers
	length     int
}

func NewEntryList() *EntryList {
	l := &EntryList{head: &Entry{Op: OpNone}, tail: &Entry{Op: OpNone}}
	l.head.next = l.tail
	l.tail.prev = l.head
	return l
}

func (l *EntryList) Len() int { return l.length }

// Front returns the first real entry, or nil if the list is empty.
func (l *EntryList) Front() *Entry {
	if l.head.next == l.tail {
		return nil
	}
	return l.head.next
}

// Back returns the last real entry, or nil if the list is empty.
func (l *EntryList) Back() *Entry {
	if l.tail.prev == l.head {
		return nil
	}
	return l.tail.prev
}

// Next returns the entry after e, or nil at the end of the list.
func (l *EntryList) Next(e *Entry) *Entry {
	if e.next == l.tail {
		return nil
	}
	return e.next
}

// Prev returns the entry before e, or nil at the start of the list.
func (l *EntryList) Prev(e *Entry) *Entry {
	if e.prev == l.head {
		return nil
	}
	return e.prev
}

// PushBack appends e at the end of the list (before the tail sentinel).
func (l *EntryList) PushBack(e *Entry) {
	l.InsertBefore(nil, e)
}

// InsertBefore splices e into the list immediately before mark. A nil mark
// means "at the end". Transforms use this to splice entries at arbitrary
// positions without perturbing any other entry's identity.
func (l *EntryList) InsertBefore(mark, e *Entry) {
	if mark == nil {
		mark = l.tail
	}
	e.prev = mark.prev
	e.next = mark
	mark.prev.next = e
	mark.prev = e
	l.length++
}

// InsertAfter splices e into the list immediately after mark.
func (l *EntryList) InsertAfter(mark, e *Entry) {
	l.InsertBefore(l.next(mark), e)
}

func (l *EntryList) next(e *Entry) *Entry {
	return e.next
}

// Erase removes e from the list. e's prev/next are cleared so a
// use-after-erase shows up as a nil dereference rather than silent
// corruption; any analysis map keyed by e must drop its entry in the same
// edit (spec §4.D, the Analysis façade's remove hook).
func (l *EntryList) Erase(e *Entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	l.length--
}

// Replace swaps new in for old at old's position and erases old.
func (l *EntryList) Replace(old, new *Entry) {
	new.prev = old.prev
	new.next = old.next
	old.prev.next = new
	old.next.prev = new
	old.prev, old.next = nil, nil
}

// Each calls fn for every entry from front to back. fn may erase the
// current entry or insert entries adjacent to it; Each captures the next
// pointer before calling fn so such edits are safe.
func (l *EntryList) Each(fn func(*Entry)) {
	for e := l.head.next; e != l.tail; {
		n := e.next
		fn(e)
		e = n
	}
}

// EachReverse calls fn for every entry from back to front, with the same
// edit-safety guarantee as Each.
func (l *EntryList) EachReverse(fn func(*Entry)) {
	for e := l.tail.prev; e != l.head; {
		p := e.prev
		fn(e)
		e = p
	}
}

// Slice materializes the list as a []*Entry snapshot, front to back.
func (l *EntryList) Slice() []*Entry {
	out := make([]*Entry, 0, l.length)
	l.Each(func(e *Entry) { out = append(out, e) })
	return out
}
