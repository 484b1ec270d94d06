package store

func (s *Store) setEntryForWrite(key string) (*Entry, error) {
	e := s.lookupLocked(key)
	if e == nil {
		e = &Entry{Kind: KindSet, Set: make(map[string]struct{})}
		s.data[key] = e
		return e, nil
	}
	if e.Kind != KindSet {
		return nil, ErrWrongType{}
	}
	return e, nil
}

// SAdd adds members to the set at key, creating it if absent, and returns
// the count of members actually added.
func (s *Store) SAdd(key string, members ...string) (int, error) {
	e, err := s.setEntryForWrite(key)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, m := range members {
		if _, ok := e.Set[m]; !ok {
			e.Set[m] = struct{}{}
			added++
		}
	}
	return added, nil
}

// SRem removes members from the set and returns the count actually removed.
func (s *Store) SRem(key string, members ...string) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.Kind != KindSet {
		return 0, ErrWrongType{}
	}
	removed := 0
	for _, m := range members {
		if _, ok := e.Set[m]; ok {
			delete(e.Set, m)
			removed++
		}
	}
	s.deleteIfEmptyLocked(key, e)
	return removed, nil
}

// SIsMember reports whether member belongs to the set at key.
func (s *Store) SIsMember(key, member string) (bool, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return false, nil
	}
	if e.Kind != KindSet {
		return false, ErrWrongType{}
	}
	_, ok := e.Set[member]
	return ok, nil
}

// SMembers returns every member of the set at key, nil if absent.
func (s *Store) SMembers(key string) ([]string, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, nil
	}
	if e.Kind != KindSet {
		return nil, ErrWrongType{}
	}
	out := make([]string, 0, len(e.Set))
	for m := range e.Set {
		out = append(out, m)
	}
	return out, nil
}

// SCard returns the cardinality of the set at key, 0 if absent.
func (s *Store) SCard(key string) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.Kind != KindSet {
		return 0, ErrWrongType{}
	}
	return len(e.Set), nil
}

func (s *Store) setSnapshotLocked(key string) (map[string]struct{}, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, nil
	}
	if e.Kind != KindSet {
		return nil, ErrWrongType{}
	}
	return e.Set, nil
}

// SInter returns the intersection of the sets at the given keys. A missing
// key makes the intersection empty, matching Redis semantics.
func (s *Store) SInter(keys ...string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	first, err := s.setSnapshotLocked(keys[0])
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, nil
	}
	result := make(map[string]struct{}, len(first))
	for m := range first {
		result[m] = struct{}{}
	}
	for _, k := range keys[1:] {
		set, err := s.setSnapshotLocked(k)
		if err != nil {
			return nil, err
		}
		if set == nil {
			return nil, nil
		}
		for m := range result {
			if _, ok := set[m]; !ok {
				delete(result, m)
			}
		}
	}
	out := make([]string, 0, len(result))
	for m := range result {
		out = append(out, m)
	}
	return out, nil
}

// SUnion returns the union of the sets at the given keys, skipping absent
// keys.
func (s *Store) SUnion(keys ...string) ([]string, error) {
	result := make(map[string]struct{})
	for _, k := range keys {
		set, err := s.setSnapshotLocked(k)
		if err != nil {
			return nil, err
		}
		for m := range set {
			result[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(result))
	for m := range result {
		out = append(out, m)
	}
	return out, nil
}

// SDiff returns the members of the set at keys[0] not present in any of the
// remaining sets.
func (s *Store) SDiff(keys ...string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	first, err := s.setSnapshotLocked(keys[0])
	if err != nil {
		return nil, err
	}
	result := make(map[string]struct{}, len(first))
	for m := range first {
		result[m] = struct{}{}
	}
	for _, k := range keys[1:] {
		set, err := s.setSnapshotLocked(k)
		if err != nil {
			return nil, err
		}
		for m := range set {
			delete(result, m)
		}
	}
	out := make([]string, 0, len(result))
	for m := range result {
		out = append(out, m)
	}
	return out, nil
}
