package store

import (
	"errors"
	"time"
)

// ErrNotInteger is returned by integer-context commands (spec §4.2) when
// the stored or supplied bytes do not parse as a signed 64-bit integer.
var ErrNotInteger = errors.New("value is not an integer or out of range")

// Expiry describes the expiry to attach to a SET, mirroring spec §4.2's
// SetOptions.Expiry sum type.
type ExpiryKind int

const (
	ExpiryNone ExpiryKind = iota
	ExpiryAbs
	ExpiryRel
	ExpiryKeepTTL
)

type Expiry struct {
	Kind ExpiryKind
	// At is used for ExpiryAbs (absolute wall-clock instant).
	At time.Time
	// Rel is used for ExpiryRel (duration from now).
	Rel time.Duration
}

// SetOptions mirrors spec §4.2's SET contract.
type SetOptions struct {
	NX     bool
	XX     bool
	Expiry Expiry
	GetOld bool
}

// SetOutcome reports what Set actually did.
type SetOutcome int

const (
	SetStored SetOutcome = iota
	SetSkippedNX
	SetSkippedXX
)

// Get returns key's string value, or a nil value and nil error if the key is
// absent or expired. A key of a different kind returns ErrWrongType.
func (s *Store) Get(key string) ([]byte, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, nil
	}
	if e.Kind != KindString {
		return nil, ErrWrongType{}
	}
	return e.Str, nil
}

// Set stores a string value under key per SetOptions, returning the
// outcome and (if GetOld was requested) the previous string value.
func (s *Store) Set(key string, value []byte, opts SetOptions) (SetOutcome, []byte, error) {
	e := s.lookupLocked(key)

	var prev []byte
	if opts.GetOld {
		if e != nil {
			if e.Kind != KindString {
				return 0, nil, ErrWrongType{}
			}
			prev = e.Str
		}
	}

	if opts.NX && e != nil {
		return SetSkippedNX, prev, nil
	}
	if opts.XX && e == nil {
		return SetSkippedXX, prev, nil
	}

	var keepExpireAt time.Time
	if opts.Expiry.Kind == ExpiryKeepTTL && e != nil {
		keepExpireAt = e.ExpireAt
	}

	ne := &Entry{Kind: KindString, Str: value}
	switch opts.Expiry.Kind {
	case ExpiryAbs:
		ne.ExpireAt = opts.Expiry.At
	case ExpiryRel:
		ne.ExpireAt = s.now().Add(opts.Expiry.Rel)
	case ExpiryKeepTTL:
		ne.ExpireAt = keepExpireAt
	case ExpiryNone:
		// plain SET clears any existing expiry (spec §3.4)
	}
	s.data[key] = ne
	return SetStored, prev, nil
}

// GetSet atomically replaces key's string value and returns the previous
// one, clearing any expiry (classic GETSET semantics, equivalent to a SET
// with no expiry options plus GET).
func (s *Store) GetSet(key string, value []byte) ([]byte, error) {
	_, prev, err := s.Set(key, value, SetOptions{GetOld: true})
	if err != nil {
		return nil, err
	}
	return prev, nil
}

// Append appends value to key's string (creating it if absent) and returns
// the resulting length.
func (s *Store) Append(key string, value []byte) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		e = &Entry{Kind: KindString}
		s.data[key] = e
	} else if e.Kind != KindString {
		return 0, ErrWrongType{}
	}
	e.Str = append(e.Str, value...)
	return len(e.Str), nil
}

// StrLen returns the length of key's string value, 0 if absent.
func (s *Store) StrLen(key string) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.Kind != KindString {
		return 0, ErrWrongType{}
	}
	return len(e.Str), nil
}

// IncrBy adds delta to key's integer value (creating it at 0 if absent)
// and returns the new value. Overflow leaves the key unmutated.
func (s *Store) IncrBy(key string, delta int64) (int64, error) {
	e := s.lookupLocked(key)
	var cur int64
	if e != nil {
		if e.Kind != KindString {
			return 0, ErrWrongType{}
		}
		n, ok := parseStrictInt64(e.Str)
		if !ok {
			return 0, ErrNotInteger
		}
		cur = n
	}
	next, ok := addInt64(cur, delta)
	if !ok {
		return 0, ErrNotInteger
	}
	if e == nil {
		e = &Entry{Kind: KindString}
		s.data[key] = e
	}
	e.Str = []byte(formatInt64(next))
	return next, nil
}

// MGet returns the string value for each key, with nil for any key that is
// absent, expired, or not a string.
func (s *Store) MGet(keys []string) [][]byte {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		e := s.lookupLocked(k)
		if e == nil || e.Kind != KindString {
			continue
		}
		out[i] = e.Str
	}
	return out
}

// MSet sets every key to its paired value, clearing expiry on each,
// matching plain SET semantics applied atomically across all pairs.
func (s *Store) MSet(pairs map[string][]byte) {
	for k, v := range pairs {
		s.data[k] = &Entry{Kind: KindString, Str: v}
	}
}
