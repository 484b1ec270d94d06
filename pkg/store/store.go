// Package store implements the in-memory, type-polymorphic keyspace: the
// single map from key to typed Entry that every command handler in
// pkg/command ultimately reads or mutates, with lazy and active expiry.
package store

import (
	"sort"
	"sync"
	"time"
)

// ValueKind identifies the aggregate type held by an Entry.
type ValueKind int

const (
	KindString ValueKind = iota
	KindList
	KindSet
	KindHash
	KindZSet
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindZSet:
		return "zset"
	default:
		return "unknown"
	}
}

// Entry is one keyspace slot: a typed value plus an optional absolute
// expiry. Only the field matching Kind is populated.
type Entry struct {
	Kind ValueKind

	Str   []byte
	List  [][]byte
	Set   map[string]struct{}
	Hash  map[string][]byte
	ZSet  *zset

	ExpireAt time.Time // zero value means no expiry
}

func (e *Entry) hasExpiry() bool { return !e.ExpireAt.IsZero() }

// ErrWrongType is returned whenever a command addresses a key whose stored
// Kind does not match what the command requires (spec §3.2).
type ErrWrongType struct{}

func (ErrWrongType) Error() string {
	return "WRONGTYPE Operation against a key holding the wrong kind of value"
}

// Store is the whole keyspace, guarded by a single reader/writer lock. None
// of the methods below take the lock themselves — every one of them is a
// "Locked" method in all but name, and the caller (pkg/command.Registry.Exec)
// is the sole lock owner, holding it for the duration of one whole command
// including the AOF append that follows a successful write, so Store
// mutation order and AOF append order can never diverge (spec §4.4/§5).
// Exec takes the full write lock for every command, not just writes: lazy
// expiry (lookupLocked) deletes from the map on read paths too, so a plain
// RLock would race with another reader's own lazy-expiry delete.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry

	now func() time.Time // overridable for tests and for deterministic AOF replay
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		data: make(map[string]*Entry),
		now:  time.Now,
	}
}

// Lock/Unlock/RLock/RUnlock expose the coarse keyspace exclusion directly:
// Exec takes Lock for every command, holding it across both the handler and
// (for writes) the AOF notify that follows, so appends can never reorder
// relative to the mutations that produced them. RLock/RUnlock remain
// available for callers (e.g. a future read-only replica path) that can
// prove they never trigger lazy expiry's map delete; Exec itself does not
// use them. Code that calls Store methods directly while Exec or the
// active-expiry sweep may run concurrently must take Lock first.
func (s *Store) Lock()    { s.mu.Lock() }
func (s *Store) Unlock()  { s.mu.Unlock() }
func (s *Store) RLock()   { s.mu.RLock() }
func (s *Store) RUnlock() { s.mu.RUnlock() }

// lookupLocked returns the live entry for key, deleting and returning nil
// if it has expired. Caller must hold at least a read lock; deleting an
// expired entry on a read path is safe only because Exec takes the full
// write lock for every command, read or write alike (spec §4.2).
func (s *Store) lookupLocked(key string) *Entry {
	e, ok := s.data[key]
	if !ok {
		return nil
	}
	if e.hasExpiry() && !e.ExpireAt.After(s.now()) {
		delete(s.data, key)
		return nil
	}
	return e
}

// Exists performs lazy expiry and reports whether key is live.
func (s *Store) Exists(key string) bool {
	return s.lookupLocked(key) != nil
}

// Del removes the given keys, applying lazy expiry first, and returns the
// count actually removed.
func (s *Store) Del(keys ...string) int {
	n := 0
	for _, k := range keys {
		if s.lookupLocked(k) != nil {
			delete(s.data, k)
			n++
		}
	}
	return n
}

// Type returns the ValueKind of key, or ok=false if absent/expired.
func (s *Store) Type(key string) (ValueKind, bool) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, false
	}
	return e.Kind, true
}

// Keys returns all live keys matching a glob pattern (spec §6.2 KEYS).
// Matching applies after lazy expiry of each candidate, so a freshly
// expired key is never reported.
func (s *Store) Keys(pattern string) []string {
	var out []string
	for k := range s.data {
		if s.lookupLocked(k) == nil {
			continue
		}
		if globMatch(pattern, k) {
			out = append(out, k)
		}
	}
	return out
}

// DBSize returns the number of live keys, applying an active sweep of
// expired entries first would be wasteful for a simple count — lazily
// expired keys still physically present are excluded by checking expiry
// inline, matching spec §3.2's "logically absent" rule without mutating
// the map on a read-only path other commands don't expect to mutate.
func (s *Store) DBSize() int {
	now := s.now()
	n := 0
	for _, e := range s.data {
		if e.hasExpiry() && !e.ExpireAt.After(now) {
			continue
		}
		n++
	}
	return n
}

// FlushAll removes every key.
func (s *Store) FlushAll() {
	s.data = make(map[string]*Entry)
}

// Rename moves src's entry (and expiry) to dst, overwriting dst if present.
// Returns false if src does not exist.
func (s *Store) Rename(src, dst string) bool {
	e := s.lookupLocked(src)
	if e == nil {
		return false
	}
	delete(s.data, src)
	s.data[dst] = e
	return true
}

// Expire sets or clears key's expiry per the When gate (spec §4.2).
type When int

const (
	WhenAlways When = iota
	WhenNX
	WhenXX
	WhenGT
	WhenLT
)

// Expire applies at to key under gate, returning whether it took effect.
func (s *Store) Expire(key string, at time.Time, when When) bool {
	e := s.lookupLocked(key)
	if e == nil {
		return false
	}
	switch when {
	case WhenNX:
		if e.hasExpiry() {
			return false
		}
	case WhenXX:
		if !e.hasExpiry() {
			return false
		}
	case WhenGT:
		if !e.hasExpiry() || !at.After(e.ExpireAt) {
			return false
		}
	case WhenLT:
		if e.hasExpiry() && !at.Before(e.ExpireAt) {
			return false
		}
	}
	e.ExpireAt = at
	return true
}

// Persist clears key's expiry, returning whether it had one.
func (s *Store) Persist(key string) bool {
	e := s.lookupLocked(key)
	if e == nil || !e.hasExpiry() {
		return false
	}
	e.ExpireAt = time.Time{}
	return true
}

// TTLResult is the outcome of a TTL/PTTL query (spec §4.2).
type TTLResult int

const (
	TTLNoKey TTLResult = iota
	TTLNoExpiry
	TTLHasRemaining
)

// TTLMillis reports the remaining time-to-live for key.
func (s *Store) TTLMillis(key string) (TTLResult, int64) {
	e := s.lookupLocked(key)
	if e == nil {
		return TTLNoKey, 0
	}
	if !e.hasExpiry() {
		return TTLNoExpiry, 0
	}
	remaining := e.ExpireAt.Sub(s.now()).Milliseconds()
	if remaining < 0 {
		remaining = 0
	}
	return TTLHasRemaining, remaining
}

// deleteIfEmptyLocked removes key if its aggregate value is now empty, per
// spec §3.2: empty aggregates are never persisted. Caller must hold the
// write lock.
func (s *Store) deleteIfEmptyLocked(key string, e *Entry) {
	empty := false
	switch e.Kind {
	case KindList:
		empty = len(e.List) == 0
	case KindSet:
		empty = len(e.Set) == 0
	case KindHash:
		empty = len(e.Hash) == 0
	case KindZSet:
		empty = e.ZSet.len() == 0
	}
	if empty {
		delete(s.data, key)
	}
}

// --- sorted set dual index -------------------------------------------------

type zsetNode struct {
	member string
	score  float64
}

// zset is the dual-indexed sorted set of spec §3.3: a member→score map plus
// an ordered (score, member) index, always mutated together under the
// Store's single write lock.
type zset struct {
	byMember map[string]float64
	ordered  []zsetNode // ascending by (score, member), no duplicates
}

func newZSet() *zset {
	return &zset{byMember: make(map[string]float64)}
}

func (z *zset) len() int { return len(z.byMember) }

func less(a, b zsetNode) bool {
	if a.score != b.score {
		return scoreLess(a.score, b.score)
	}
	return a.member < b.member
}

// scoreLess totally orders float64 scores per spec §3.3: -inf < finite <
// +inf. NaN is never stored (rejected on input by every command), so no
// special case for it is needed here.
func scoreLess(a, b float64) bool {
	return a < b
}

func (z *zset) find(member string) (int, bool) {
	score, ok := z.byMember[member]
	if !ok {
		return 0, false
	}
	node := zsetNode{member: member, score: score}
	i := sort.Search(len(z.ordered), func(i int) bool {
		return !less(z.ordered[i], node)
	})
	if i < len(z.ordered) && z.ordered[i].member == member && z.ordered[i].score == score {
		return i, true
	}
	return 0, false
}

// upsert inserts or updates member's score, keeping both indices in sync.
// Returns true if member is newly added.
func (z *zset) upsert(member string, score float64) bool {
	_, existed := z.byMember[member]
	if existed {
		if i, ok := z.find(member); ok {
			z.ordered = append(z.ordered[:i], z.ordered[i+1:]...)
		}
	}
	z.byMember[member] = score
	node := zsetNode{member: member, score: score}
	i := sort.Search(len(z.ordered), func(i int) bool { return !less(z.ordered[i], node) })
	z.ordered = append(z.ordered, zsetNode{})
	copy(z.ordered[i+1:], z.ordered[i:])
	z.ordered[i] = node
	return !existed
}

func (z *zset) remove(member string) bool {
	if i, ok := z.find(member); ok {
		delete(z.byMember, member)
		z.ordered = append(z.ordered[:i], z.ordered[i+1:]...)
		return true
	}
	return false
}

func (z *zset) score(member string) (float64, bool) {
	s, ok := z.byMember[member]
	return s, ok
}

// rank returns member's 0-based ascending rank.
func (z *zset) rank(member string) (int, bool) {
	i, ok := z.find(member)
	if !ok {
		return 0, false
	}
	return i, true
}

func (z *zset) countBetween(min, max float64, minExcl, maxExcl bool) int {
	n := 0
	for _, node := range z.ordered {
		if belowMin(node.score, min, minExcl) {
			continue
		}
		if aboveMax(node.score, max, maxExcl) {
			continue
		}
		n++
	}
	return n
}

func belowMin(score, min float64, excl bool) bool {
	if excl {
		return score <= min
	}
	return score < min
}

func aboveMax(score, max float64, excl bool) bool {
	if excl {
		return score >= max
	}
	return score > max
}

func (z *zset) getAll() []zsetNode {
	return z.ordered
}
