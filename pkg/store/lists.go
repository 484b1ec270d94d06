package store

import "errors"

// ErrIndexOutOfRange is returned by LSET when the index is not within the
// current list bounds.
var ErrIndexOutOfRange = errors.New("index out of range")

func (s *Store) listEntryForWrite(key string) (*Entry, error) {
	e := s.lookupLocked(key)
	if e == nil {
		e = &Entry{Kind: KindList}
		s.data[key] = e
		return e, nil
	}
	if e.Kind != KindList {
		return nil, ErrWrongType{}
	}
	return e, nil
}

// LPush prepends values (in argument order, so each one ends up before the
// previous) and returns the new length.
func (s *Store) LPush(key string, values ...[]byte) (int, error) {
	e, err := s.listEntryForWrite(key)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		e.List = append([][]byte{v}, e.List...)
	}
	return len(e.List), nil
}

// RPush appends values and returns the new length.
func (s *Store) RPush(key string, values ...[]byte) (int, error) {
	e, err := s.listEntryForWrite(key)
	if err != nil {
		return 0, err
	}
	e.List = append(e.List, values...)
	return len(e.List), nil
}

// LPop removes and returns up to count elements from the head. ok is false
// if the key is absent.
func (s *Store) LPop(key string, count int) ([][]byte, bool, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, false, nil
	}
	if e.Kind != KindList {
		return nil, false, ErrWrongType{}
	}
	if count > len(e.List) {
		count = len(e.List)
	}
	popped := make([][]byte, count)
	copy(popped, e.List[:count])
	e.List = e.List[count:]
	s.deleteIfEmptyLocked(key, e)
	return popped, true, nil
}

// RPop removes and returns up to count elements from the tail, in
// tail-to-head removal order for count>1 (last element first).
func (s *Store) RPop(key string, count int) ([][]byte, bool, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, false, nil
	}
	if e.Kind != KindList {
		return nil, false, ErrWrongType{}
	}
	if count > len(e.List) {
		count = len(e.List)
	}
	n := len(e.List)
	popped := make([][]byte, count)
	for i := 0; i < count; i++ {
		popped[i] = e.List[n-1-i]
	}
	e.List = e.List[:n-count]
	s.deleteIfEmptyLocked(key, e)
	return popped, true, nil
}

// LLen returns the list's length, 0 if absent.
func (s *Store) LLen(key string) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.Kind != KindList {
		return 0, ErrWrongType{}
	}
	return len(e.List), nil
}

// LRange returns the inclusive [start,stop] slice of the list, supporting
// negative indices counted from the end (spec §4.2).
func (s *Store) LRange(key string, start, stop int) ([][]byte, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, nil
	}
	if e.Kind != KindList {
		return nil, ErrWrongType{}
	}
	n := len(e.List)
	start = normalizeIndex(start, n)
	stop = normalizeIndex(stop, n)
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return nil, nil
	}
	out := make([][]byte, stop-start+1)
	copy(out, e.List[start:stop+1])
	return out, nil
}

// LIndex returns the element at index, or ok=false if out of range.
func (s *Store) LIndex(key string, index int) ([]byte, bool, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, false, nil
	}
	if e.Kind != KindList {
		return nil, false, ErrWrongType{}
	}
	n := len(e.List)
	idx := normalizeIndex(index, n)
	if idx < 0 || idx >= n {
		return nil, false, nil
	}
	return e.List[idx], true, nil
}

// LSet overwrites the element at index.
func (s *Store) LSet(key string, index int, value []byte) error {
	e := s.lookupLocked(key)
	if e == nil {
		return errors.New("no such key")
	}
	if e.Kind != KindList {
		return ErrWrongType{}
	}
	n := len(e.List)
	idx := normalizeIndex(index, n)
	if idx < 0 || idx >= n {
		return ErrIndexOutOfRange
	}
	e.List[idx] = value
	return nil
}

// LRem removes elements equal to value from the list. count>0 removes from
// head going toward tail, count<0 from tail going toward head, count==0
// removes all occurrences. Returns the number removed.
func (s *Store) LRem(key string, count int, value []byte) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.Kind != KindList {
		return 0, ErrWrongType{}
	}
	var out [][]byte
	removed := 0
	limit := count
	if limit < 0 {
		limit = -limit
	}
	if count >= 0 {
		for _, v := range e.List {
			if bytesEqual(v, value) && (limit == 0 || removed < limit) {
				removed++
				continue
			}
			out = append(out, v)
		}
	} else {
		for i := len(e.List) - 1; i >= 0; i-- {
			v := e.List[i]
			if bytesEqual(v, value) && removed < limit {
				removed++
				continue
			}
			out = append([][]byte{v}, out...)
		}
	}
	e.List = out
	s.deleteIfEmptyLocked(key, e)
	return removed, nil
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		return n + i
	}
	return i
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
