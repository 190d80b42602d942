package ir

// EntrySubList is a boundary view [First, Last] (inclusive) into a
// Procedure's EntryList, used by flow-graph Blocks (spec §3, §4.A). It
// remains valid under insertion outside its range and under insertion or
// removal of entries strictly between First and Last; only a Replace at
// First or Last itself needs to touch the sub-list's own boundary fields.
type EntrySubList struct {
	First, Last *Entry
}

// Contains reports whether e lies within [First, Last] by walking forward
// from First. Blocks are short in practice (a handful of entries between
// label and terminator) so this linear walk is cheap relative to the
// analyses that call it.
func (s EntrySubList) Contains(list *EntryList, e *Entry) bool {
	for cur := s.First; ; cur = list.Next(cur) {
		if cur == e {
			return true
		}
		if cur == s.Last || cur == nil {
			return false
		}
	}
}

// Each walks the entries in [First, Last] from front to back.
func (s EntrySubList) Each(list *EntryList, fn func(*Entry)) {
	if s.First == nil {
		return
	}
	for cur := s.First; ; {
		next := list.Next(cur)
		fn(cur)
		if cur == s.Last {
			return
		}
		cur = next
	}
}

// Replace swaps new for old at a sub-list boundary. Interior swaps are a
// caller error to request (EntryList.Replace handles those); this method
// only needs to fix up First/Last when old is itself one of the
// boundaries, matching the flow graph's replace(old,new) (spec §4.B).
func (s *EntrySubList) Replace(old, new *Entry) {
	if s.First == old {
		s.First = new
	}
	if s.Last == old {
		s.Last = new
	}
}
