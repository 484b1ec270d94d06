package command

import (
	"strconv"
	"strings"

	"github.com/lanterndb/lantern/pkg/resp"
	"github.com/lanterndb/lantern/pkg/store"
)

func registerZSetCommands(r *Registry) {
	r.register(&Command{Name: "ZADD", Arity: -4, Class: ClassWrite, Fn: cmdZAdd})
	r.register(&Command{Name: "ZREM", Arity: -3, Class: ClassWrite, Fn: cmdZRem})
	r.register(&Command{Name: "ZSCORE", Arity: 3, Class: ClassRead, Fn: cmdZScore})
	r.register(&Command{Name: "ZRANK", Arity: 3, Class: ClassRead, Fn: cmdZRank})
	r.register(&Command{Name: "ZCARD", Arity: 2, Class: ClassRead, Fn: cmdZCard})
	r.register(&Command{Name: "ZCOUNT", Arity: 4, Class: ClassRead, Fn: cmdZCount})
	r.register(&Command{Name: "ZRANGE", Arity: -4, Class: ClassRead, Fn: cmdZRange})
}

func parseBound(s string) (val float64, excl bool, ok bool) {
	if len(s) > 0 && s[0] == '(' {
		f, ok := store.ParseStrictFloat64(s[1:])
		return f, true, ok
	}
	f, ok := store.ParseStrictFloat64(s)
	return f, false, ok
}

// cmdZAdd parses the NX/XX/GT/LT/CH/INCR flag prefix (spec §4.2/§4.3),
// then the (score, member) pairs.
func cmdZAdd(env *Env, args [][]byte) resp.Value {
	opts := store.ZAddOptions{}
	i := 2
	for i < len(args) {
		tok := strings.ToUpper(string(args[i]))
		switch tok {
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		case "GT":
			opts.GT = true
		case "LT":
			opts.LT = true
		case "CH":
			opts.CH = true
		case "INCR":
			opts.Incr = true
		default:
			goto pairs
		}
		i++
	}
pairs:
	if opts.NX && opts.XX {
		return resp.Error("ERR XX and NX options at the same time are not compatible")
	}
	if opts.NX && (opts.GT || opts.LT) {
		return resp.Error("ERR GT, LT, and/or NX options at the same time are not compatible")
	}
	if opts.GT && opts.LT {
		return resp.Error("ERR GT, LT, and/or NX options at the same time are not compatible")
	}
	remaining := args[i:]
	if len(remaining) == 0 || len(remaining)%2 != 0 {
		return syntaxErr()
	}
	if opts.Incr && len(remaining) != 2 {
		return resp.Error("ERR INCR option supports a single increment-element pair")
	}
	members := make([]store.ZMember, len(remaining)/2)
	for j := 0; j < len(remaining); j += 2 {
		score, ok := store.ParseStrictFloat64(string(remaining[j]))
		if !ok {
			return resp.Error("ERR value is not a valid float")
		}
		members[j/2] = store.ZMember{Member: string(remaining[j+1]), Score: score}
	}
	res, err := env.Store.ZAdd(string(args[1]), opts, members)
	if err != nil {
		return asError(err)
	}
	if opts.Incr {
		if !res.IncrOK {
			return resp.NullBulk()
		}
		return resp.BulkFromString(strconv.FormatFloat(res.IncrNew, 'g', -1, 64))
	}
	if opts.CH {
		return resp.Integer(int64(res.Changed))
	}
	return resp.Integer(int64(res.Added))
}

func cmdZRem(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.ZRem(string(args[1]), stringArgs(args[2:])...)
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdZScore(env *Env, args [][]byte) resp.Value {
	score, ok, err := env.Store.ZScore(string(args[1]), string(args[2]))
	if err != nil {
		return asError(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkFromString(strconv.FormatFloat(score, 'g', -1, 64))
}

func cmdZRank(env *Env, args [][]byte) resp.Value {
	rank, ok, err := env.Store.ZRank(string(args[1]), string(args[2]))
	if err != nil {
		return asError(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Integer(int64(rank))
}

func cmdZCard(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.ZCard(string(args[1]))
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdZCount(env *Env, args [][]byte) resp.Value {
	min, minExcl, ok1 := parseBound(string(args[2]))
	max, maxExcl, ok2 := parseBound(string(args[3]))
	if !ok1 || !ok2 {
		return resp.Error("ERR min or max is not a float")
	}
	n, err := env.Store.ZCount(string(args[1]), min, max, minExcl, maxExcl)
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

// cmdZRange implements the unified ZRANGE form: index range by default,
// BYSCORE/BYLEX selects the axis, REV reverses, LIMIT offset count paginates,
// WITHSCORES attaches scores to the reply (spec §4.2/§4.3).
func cmdZRange(env *Env, args [][]byte) resp.Value {
	spec := store.ZRangeSpec{By: store.ZRangeByIndex, Count: -1}
	withScores := false

	byScore, byLex, reverse := false, false, false
	i := 4
	for i < len(args) {
		tok := strings.ToUpper(string(args[i]))
		switch tok {
		case "BYSCORE":
			byScore = true
			i++
		case "BYLEX":
			byLex = true
			i++
		case "REV":
			reverse = true
			i++
		case "WITHSCORES":
			withScores = true
			i++
		case "LIMIT":
			if i+2 >= len(args) {
				return syntaxErr()
			}
			off, err1 := strconv.Atoi(string(args[i+1]))
			cnt, err2 := strconv.Atoi(string(args[i+2]))
			if err1 != nil || err2 != nil {
				return resp.Error("ERR value is not an integer or out of range")
			}
			spec.Limit = true
			spec.Offset = off
			spec.Count = cnt
			i += 3
		default:
			return syntaxErr()
		}
	}
	spec.Reverse = reverse

	if byScore && byLex {
		return syntaxErr()
	}
	if byScore {
		spec.By = store.ZRangeByScore
		min, minExcl, ok1 := parseBound(string(args[2]))
		max, maxExcl, ok2 := parseBound(string(args[3]))
		if !ok1 || !ok2 {
			return resp.Error("ERR min or max is not a float")
		}
		spec.Min, spec.MinExcl = min, minExcl
		spec.Max, spec.MaxExcl = max, maxExcl
	} else if byLex {
		spec.By = store.ZRangeByLex
		spec.MinLex = string(args[2])
		spec.MaxLex = string(args[3])
	} else {
		start, err1 := strconv.Atoi(string(args[2]))
		stop, err2 := strconv.Atoi(string(args[3]))
		if err1 != nil || err2 != nil {
			return resp.Error("ERR value is not an integer or out of range")
		}
		spec.Start, spec.Stop = start, stop
	}

	members, err := env.Store.ZRange(string(args[1]), spec)
	if err != nil {
		return asError(err)
	}
	if !withScores {
		names := make([]string, len(members))
		for i, m := range members {
			names[i] = m.Member
		}
		return arrayOfStrings(names)
	}
	elems := make([]resp.Value, 0, len(members)*2)
	for _, m := range members {
		elems = append(elems, resp.BulkFromString(m.Member), resp.BulkFromString(strconv.FormatFloat(m.Score, 'g', -1, 64)))
	}
	return resp.Array(elems...)
}
