package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/lanterndb/lantern/pkg/resp"
	"github.com/lanterndb/lantern/pkg/store"
)

func registerStringCommands(r *Registry) {
	r.register(&Command{Name: "GET", Arity: 2, Class: ClassRead, Fn: cmdGet})
	r.register(&Command{Name: "SET", Arity: -3, Class: ClassWrite, Fn: cmdSet})
	r.register(&Command{Name: "GETSET", Arity: 3, Class: ClassWrite, Fn: cmdGetSet})
	r.register(&Command{Name: "APPEND", Arity: 3, Class: ClassWrite, Fn: cmdAppend})
	r.register(&Command{Name: "STRLEN", Arity: 2, Class: ClassRead, Fn: cmdStrLen})
	r.register(&Command{Name: "INCR", Arity: 2, Class: ClassWrite, Fn: cmdIncr})
	r.register(&Command{Name: "DECR", Arity: 2, Class: ClassWrite, Fn: cmdDecr})
	r.register(&Command{Name: "INCRBY", Arity: 3, Class: ClassWrite, Fn: cmdIncrBy})
	r.register(&Command{Name: "DECRBY", Arity: 3, Class: ClassWrite, Fn: cmdDecrBy})
	r.register(&Command{Name: "MGET", Arity: -2, Class: ClassRead, Fn: cmdMGet})
	r.register(&Command{Name: "MSET", Arity: -3, Class: ClassWrite, Fn: cmdMSet})
}

func cmdGet(env *Env, args [][]byte) resp.Value {
	v, err := env.Store.Get(string(args[1]))
	if err != nil {
		return asError(err)
	}
	return bulkFromBytes(v)
}

// cmdSet parses the SET option tail (NX/XX/EX/PX/EXAT/PXAT/KEEPTTL/GET) per
// spec §4.2/§4.3, then delegates to Store.Set.
func cmdSet(env *Env, args [][]byte) resp.Value {
	opts := store.SetOptions{}
	i := 3
	for i < len(args) {
		tok := strings.ToUpper(string(args[i]))
		switch tok {
		case "NX":
			opts.NX = true
			i++
		case "XX":
			opts.XX = true
			i++
		case "GET":
			opts.GetOld = true
			i++
		case "KEEPTTL":
			opts.Expiry = store.Expiry{Kind: store.ExpiryKeepTTL}
			i++
		case "EX", "PX", "EXAT", "PXAT":
			if i+1 >= len(args) {
				return syntaxErr()
			}
			n, err := strconv.ParseInt(string(args[i+1]), 10, 64)
			if err != nil {
				return resp.Error("ERR value is not an integer or out of range")
			}
			switch tok {
			case "EX":
				opts.Expiry = store.Expiry{Kind: store.ExpiryRel, Rel: time.Duration(n) * time.Second}
			case "PX":
				opts.Expiry = store.Expiry{Kind: store.ExpiryRel, Rel: time.Duration(n) * time.Millisecond}
			case "EXAT":
				opts.Expiry = store.Expiry{Kind: store.ExpiryAbs, At: time.Unix(n, 0)}
			case "PXAT":
				opts.Expiry = store.Expiry{Kind: store.ExpiryAbs, At: time.UnixMilli(n)}
			}
			i += 2
		default:
			return syntaxErr()
		}
	}
	if opts.NX && opts.XX {
		return syntaxErr()
	}
	outcome, prev, err := env.Store.Set(string(args[1]), args[2], opts)
	if err != nil {
		return asError(err)
	}
	if opts.GetOld {
		return bulkFromBytes(prev)
	}
	if outcome != store.SetStored {
		return resp.NullBulk()
	}
	return okReply()
}

func cmdGetSet(env *Env, args [][]byte) resp.Value {
	prev, err := env.Store.GetSet(string(args[1]), args[2])
	if err != nil {
		return asError(err)
	}
	return bulkFromBytes(prev)
}

func cmdAppend(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.Append(string(args[1]), args[2])
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdStrLen(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.StrLen(string(args[1]))
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func incrByReply(env *Env, key string, delta int64) resp.Value {
	n, err := env.Store.IncrBy(key, delta)
	if err != nil {
		return asError(err)
	}
	return resp.Integer(n)
}

func cmdIncr(env *Env, args [][]byte) resp.Value {
	return incrByReply(env, string(args[1]), 1)
}

func cmdDecr(env *Env, args [][]byte) resp.Value {
	return incrByReply(env, string(args[1]), -1)
}

func cmdIncrBy(env *Env, args [][]byte) resp.Value {
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	return incrByReply(env, string(args[1]), n)
}

func cmdDecrBy(env *Env, args [][]byte) resp.Value {
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	return incrByReply(env, string(args[1]), -n)
}

func cmdMGet(env *Env, args [][]byte) resp.Value {
	keys := make([]string, len(args)-1)
	for i, a := range args[1:] {
		keys[i] = string(a)
	}
	return arrayOfBulk(env.Store.MGet(keys))
}

func cmdMSet(env *Env, args [][]byte) resp.Value {
	if (len(args)-1)%2 != 0 {
		return resp.Error("ERR wrong number of arguments for 'mset' command")
	}
	pairs := make(map[string][]byte, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		pairs[string(args[i])] = args[i+1]
	}
	env.Store.MSet(pairs)
	return okReply()
}
