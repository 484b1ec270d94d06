package store

func (s *Store) hashEntryForWrite(key string) (*Entry, error) {
	e := s.lookupLocked(key)
	if e == nil {
		e = &Entry{Kind: KindHash, Hash: make(map[string][]byte)}
		s.data[key] = e
		return e, nil
	}
	if e.Kind != KindHash {
		return nil, ErrWrongType{}
	}
	return e, nil
}

// HSet sets each field to its paired value, creating the hash if absent,
// and returns the number of fields that were newly created.
func (s *Store) HSet(key string, fields map[string][]byte) (int, error) {
	e, err := s.hashEntryForWrite(key)
	if err != nil {
		return 0, err
	}
	created := 0
	for f, v := range fields {
		if _, ok := e.Hash[f]; !ok {
			created++
		}
		e.Hash[f] = v
	}
	return created, nil
}

// HGet returns field's value, ok=false if the hash or field is absent.
func (s *Store) HGet(key, field string) ([]byte, bool, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, false, nil
	}
	if e.Kind != KindHash {
		return nil, false, ErrWrongType{}
	}
	v, ok := e.Hash[field]
	return v, ok, nil
}

// HDel removes fields from the hash and returns the count removed.
func (s *Store) HDel(key string, fields ...string) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.Kind != KindHash {
		return 0, ErrWrongType{}
	}
	removed := 0
	for _, f := range fields {
		if _, ok := e.Hash[f]; ok {
			delete(e.Hash, f)
			removed++
		}
	}
	s.deleteIfEmptyLocked(key, e)
	return removed, nil
}

// HMGet returns the value for each requested field, nil for any field (or
// whole hash) that is absent.
func (s *Store) HMGet(key string, fields []string) ([][]byte, error) {
	e := s.lookupLocked(key)
	if e != nil && e.Kind != KindHash {
		return nil, ErrWrongType{}
	}
	out := make([][]byte, len(fields))
	if e == nil {
		return out, nil
	}
	for i, f := range fields {
		out[i] = e.Hash[f]
	}
	return out, nil
}

// HGetAll returns every field/value pair in the hash, nil if absent.
func (s *Store) HGetAll(key string) (map[string][]byte, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, nil
	}
	if e.Kind != KindHash {
		return nil, ErrWrongType{}
	}
	out := make(map[string][]byte, len(e.Hash))
	for f, v := range e.Hash {
		out[f] = v
	}
	return out, nil
}

// HKeys returns the field names of the hash, nil if absent.
func (s *Store) HKeys(key string) ([]string, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, nil
	}
	if e.Kind != KindHash {
		return nil, ErrWrongType{}
	}
	out := make([]string, 0, len(e.Hash))
	for f := range e.Hash {
		out = append(out, f)
	}
	return out, nil
}

// HVals returns the field values of the hash, nil if absent.
func (s *Store) HVals(key string) ([][]byte, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, nil
	}
	if e.Kind != KindHash {
		return nil, ErrWrongType{}
	}
	out := make([][]byte, 0, len(e.Hash))
	for _, v := range e.Hash {
		out = append(out, v)
	}
	return out, nil
}

// HLen returns the number of fields in the hash, 0 if absent.
func (s *Store) HLen(key string) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.Kind != KindHash {
		return 0, ErrWrongType{}
	}
	return len(e.Hash), nil
}

// HExists reports whether field exists in the hash at key.
func (s *Store) HExists(key, field string) (bool, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return false, nil
	}
	if e.Kind != KindHash {
		return false, ErrWrongType{}
	}
	_, ok := e.Hash[field]
	return ok, nil
}

// HIncrBy adds delta to field's integer value (0 if absent) and returns the
// new value.
func (s *Store) HIncrBy(key, field string, delta int64) (int64, error) {
	e, err := s.hashEntryForWrite(key)
	if err != nil {
		return 0, err
	}
	var cur int64
	if v, ok := e.Hash[field]; ok {
		n, ok := parseStrictInt64(v)
		if !ok {
			return 0, ErrNotInteger
		}
		cur = n
	}
	next, ok := addInt64(cur, delta)
	if !ok {
		return 0, ErrNotInteger
	}
	e.Hash[field] = []byte(formatInt64(next))
	return next, nil
}
