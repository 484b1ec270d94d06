package store

import (
	"errors"
	"math"
)

// ErrNaNResult is returned by ZAdd when an INCR would produce a NaN score
// (e.g. adding +inf and -inf), matching spec §3.3's ban on NaN scores.
var ErrNaNResult = errors.New("resulting score is not a number (NaN)")

// ZMember pairs a member with the score ZAdd should give it.
type ZMember struct {
	Member string
	Score  float64
}

// ZAddOptions mirrors spec §4.2's ZADD flag set. Per Redis semantics NX
// excludes XX, GT and LT, and GT excludes LT (XX may be combined with GT or
// LT); callers (pkg/command) are responsible for rejecting illegal
// combinations before calling ZAdd.
type ZAddOptions struct {
	NX   bool
	XX   bool
	GT   bool
	LT   bool
	CH   bool
	Incr bool
}

// ZAddResult reports what ZAdd did.
type ZAddResult struct {
	Added   int     // brand-new members
	Changed int     // members whose score changed (Added + updated, only meaningful with CH)
	IncrNew float64 // resulting score, valid only when Incr was requested and IncrOK is true
	IncrOK  bool    // false if Incr was requested but the update was skipped by NX/XX/GT/LT
}

func (s *Store) zsetEntryForWrite(key string) (*Entry, error) {
	e := s.lookupLocked(key)
	if e == nil {
		e = &Entry{Kind: KindZSet, ZSet: newZSet()}
		s.data[key] = e
		return e, nil
	}
	if e.Kind != KindZSet {
		return nil, ErrWrongType{}
	}
	return e, nil
}

// ZAdd adds or updates members' scores in the sorted set at key.
func (s *Store) ZAdd(key string, opts ZAddOptions, members []ZMember) (ZAddResult, error) {
	e, err := s.zsetEntryForWrite(key)
	if err != nil {
		return ZAddResult{}, err
	}
	var res ZAddResult
	for _, m := range members {
		cur, existed := e.ZSet.score(m.Member)
		if opts.NX && existed {
			continue
		}
		if opts.XX && !existed {
			continue
		}
		newScore := m.Score
		if opts.Incr {
			newScore = cur + m.Score
			if math.IsNaN(newScore) {
				s.deleteIfEmptyLocked(key, e)
				return ZAddResult{}, ErrNaNResult
			}
		}
		if existed {
			if opts.GT && newScore <= cur {
				continue
			}
			if opts.LT && newScore >= cur {
				continue
			}
		}
		if !existed {
			res.Added++
			res.Changed++
		} else if newScore != cur {
			res.Changed++
		}
		e.ZSet.upsert(m.Member, newScore)
		if opts.Incr {
			res.IncrNew = newScore
			res.IncrOK = true
		}
	}
	s.deleteIfEmptyLocked(key, e)
	return res, nil
}

// ZRem removes members from the sorted set and returns the count removed.
func (s *Store) ZRem(key string, members ...string) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.Kind != KindZSet {
		return 0, ErrWrongType{}
	}
	removed := 0
	for _, m := range members {
		if e.ZSet.remove(m) {
			removed++
		}
	}
	s.deleteIfEmptyLocked(key, e)
	return removed, nil
}

// ZScore returns member's score, ok=false if member or key is absent.
func (s *Store) ZScore(key, member string) (float64, bool, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, false, nil
	}
	if e.Kind != KindZSet {
		return 0, false, ErrWrongType{}
	}
	score, ok := e.ZSet.score(member)
	return score, ok, nil
}

// ZRank returns member's 0-based ascending rank, ok=false if absent.
func (s *Store) ZRank(key, member string) (int, bool, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, false, nil
	}
	if e.Kind != KindZSet {
		return 0, false, ErrWrongType{}
	}
	rank, ok := e.ZSet.rank(member)
	return rank, ok, nil
}

// ZCard returns the cardinality of the sorted set at key, 0 if absent.
func (s *Store) ZCard(key string) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.Kind != KindZSet {
		return 0, ErrWrongType{}
	}
	return e.ZSet.len(), nil
}

// ZCount returns the number of members whose score falls within
// [min,max], honoring the exclusive-bound flags.
func (s *Store) ZCount(key string, min, max float64, minExcl, maxExcl bool) (int, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return 0, nil
	}
	if e.Kind != KindZSet {
		return 0, ErrWrongType{}
	}
	return e.ZSet.countBetween(min, max, minExcl, maxExcl), nil
}

// ZRangeBy selects which axis ZRange walks (spec §4.2's BYSCORE/BYLEX forms).
type ZRangeBy int

const (
	ZRangeByIndex ZRangeBy = iota
	ZRangeByScore
	ZRangeByLex
)

// ZRangeSpec describes one ZRange call.
type ZRangeSpec struct {
	By         ZRangeBy
	Start, Stop int     // used when By == ZRangeByIndex
	Min, Max    float64 // used when By == ZRangeByScore
	MinExcl, MaxExcl bool
	MinLex, MaxLex string // used when By == ZRangeByLex ("-", "+", "[x", "(x")
	Reverse    bool
	Limit      bool
	Offset     int
	Count      int // -1 means unbounded
}

// ZRange evaluates spec against the sorted set at key and returns the
// selected members in traversal order together with their scores.
func (s *Store) ZRange(key string, spec ZRangeSpec) ([]ZMember, error) {
	e := s.lookupLocked(key)
	if e == nil {
		return nil, nil
	}
	if e.Kind != KindZSet {
		return nil, ErrWrongType{}
	}
	all := e.ZSet.getAll()

	var selected []zsetNode
	switch spec.By {
	case ZRangeByIndex:
		n := len(all)
		start := normalizeIndex(spec.Start, n)
		stop := normalizeIndex(spec.Stop, n)
		if start < 0 {
			start = 0
		}
		if stop >= n {
			stop = n - 1
		}
		if start <= stop && n > 0 {
			selected = append(selected, all[start:stop+1]...)
		}
	case ZRangeByScore:
		for _, node := range all {
			if belowMin(node.score, spec.Min, spec.MinExcl) {
				continue
			}
			if aboveMax(node.score, spec.Max, spec.MaxExcl) {
				continue
			}
			selected = append(selected, node)
		}
	case ZRangeByLex:
		for _, node := range all {
			if !lexAtLeast(node.member, spec.MinLex) {
				continue
			}
			if !lexAtMost(node.member, spec.MaxLex) {
				continue
			}
			selected = append(selected, node)
		}
	}

	if spec.Reverse {
		for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
			selected[i], selected[j] = selected[j], selected[i]
		}
	}

	if spec.Limit {
		if spec.Offset >= len(selected) {
			selected = nil
		} else {
			selected = selected[spec.Offset:]
			if spec.Count >= 0 && spec.Count < len(selected) {
				selected = selected[:spec.Count]
			}
		}
	}

	out := make([]ZMember, len(selected))
	for i, node := range selected {
		out[i] = ZMember{Member: node.member, Score: node.score}
	}
	return out, nil
}

// lexAtLeast reports whether member satisfies a ZRANGEBYLEX lower bound of
// "-" (unbounded), "[x" (inclusive), or "(x" (exclusive).
func lexAtLeast(member, bound string) bool {
	if bound == "-" {
		return true
	}
	if bound == "+" {
		return false
	}
	if len(bound) == 0 {
		return true
	}
	switch bound[0] {
	case '[':
		return member >= bound[1:]
	case '(':
		return member > bound[1:]
	default:
		return member >= bound
	}
}

func lexAtMost(member, bound string) bool {
	if bound == "+" {
		return true
	}
	if bound == "-" {
		return false
	}
	if len(bound) == 0 {
		return true
	}
	switch bound[0] {
	case '[':
		return member <= bound[1:]
	case '(':
		return member < bound[1:]
	default:
		return member <= bound
	}
}
