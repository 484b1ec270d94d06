package command

import (
	"strconv"
	"time"

	"github.com/lanterndb/lantern/pkg/resp"
	"github.com/lanterndb/lantern/pkg/store"
)

func registerKeyCommands(r *Registry) {
	r.register(&Command{Name: "DEL", Arity: -2, Class: ClassWrite, Fn: cmdDel})
	r.register(&Command{Name: "EXISTS", Arity: -2, Class: ClassRead, Fn: cmdExists})
	r.register(&Command{Name: "EXPIRE", Arity: -3, Class: ClassWrite, Fn: cmdExpire})
	r.register(&Command{Name: "PEXPIRE", Arity: -3, Class: ClassWrite, Fn: cmdPExpire})
	r.register(&Command{Name: "EXPIREAT", Arity: -3, Class: ClassWrite, Fn: cmdExpireAt})
	r.register(&Command{Name: "PEXPIREAT", Arity: -3, Class: ClassWrite, Fn: cmdPExpireAt})
	r.register(&Command{Name: "TTL", Arity: 2, Class: ClassRead, Fn: cmdTTL})
	r.register(&Command{Name: "PTTL", Arity: 2, Class: ClassRead, Fn: cmdPTTL})
	r.register(&Command{Name: "PERSIST", Arity: 2, Class: ClassWrite, Fn: cmdPersist})
	r.register(&Command{Name: "TYPE", Arity: 2, Class: ClassRead, Fn: cmdType})
	r.register(&Command{Name: "KEYS", Arity: 2, Class: ClassRead, Fn: cmdKeys})
	r.register(&Command{Name: "RENAME", Arity: 3, Class: ClassWrite, Fn: cmdRename})
}

func cmdDel(env *Env, args [][]byte) resp.Value {
	keys := make([]string, len(args)-1)
	for i, a := range args[1:] {
		keys[i] = string(a)
	}
	return resp.Integer(int64(env.Store.Del(keys...)))
}

func cmdExists(env *Env, args [][]byte) resp.Value {
	n := 0
	for _, a := range args[1:] {
		if env.Store.Exists(string(a)) {
			n++
		}
	}
	return resp.Integer(int64(n))
}

func parseExpireWhen(args [][]byte, idx int) (store.When, bool) {
	if idx >= len(args) {
		return store.WhenAlways, true
	}
	switch string(args[idx]) {
	case "NX":
		return store.WhenNX, true
	case "XX":
		return store.WhenXX, true
	case "GT":
		return store.WhenGT, true
	case "LT":
		return store.WhenLT, true
	default:
		return 0, false
	}
}

func cmdExpire(env *Env, args [][]byte) resp.Value {
	return applyExpire(env, args, func(n int64) time.Time { return time.Now().Add(time.Duration(n) * time.Second) })
}

func cmdPExpire(env *Env, args [][]byte) resp.Value {
	return applyExpire(env, args, func(n int64) time.Time { return time.Now().Add(time.Duration(n) * time.Millisecond) })
}

func cmdExpireAt(env *Env, args [][]byte) resp.Value {
	return applyExpire(env, args, func(n int64) time.Time { return time.Unix(n, 0) })
}

func cmdPExpireAt(env *Env, args [][]byte) resp.Value {
	return applyExpire(env, args, func(n int64) time.Time { return time.UnixMilli(n) })
}

func applyExpire(env *Env, args [][]byte, toTime func(int64) time.Time) resp.Value {
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	when, ok := parseExpireWhen(args, 3)
	if !ok {
		return syntaxErr()
	}
	ok = env.Store.Expire(string(args[1]), toTime(n), when)
	if ok {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdTTL(env *Env, args [][]byte) resp.Value {
	res, ms := env.Store.TTLMillis(string(args[1]))
	switch res {
	case store.TTLNoKey:
		return resp.Integer(-2)
	case store.TTLNoExpiry:
		return resp.Integer(-1)
	default:
		return resp.Integer(ms / 1000)
	}
}

func cmdPTTL(env *Env, args [][]byte) resp.Value {
	res, ms := env.Store.TTLMillis(string(args[1]))
	switch res {
	case store.TTLNoKey:
		return resp.Integer(-2)
	case store.TTLNoExpiry:
		return resp.Integer(-1)
	default:
		return resp.Integer(ms)
	}
}

func cmdPersist(env *Env, args [][]byte) resp.Value {
	if env.Store.Persist(string(args[1])) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdType(env *Env, args [][]byte) resp.Value {
	kind, ok := env.Store.Type(string(args[1]))
	if !ok {
		return resp.SimpleString("none")
	}
	return resp.SimpleString(kind.String())
}

func cmdKeys(env *Env, args [][]byte) resp.Value {
	return arrayOfStrings(env.Store.Keys(string(args[1])))
}

func cmdRename(env *Env, args [][]byte) resp.Value {
	if !env.Store.Rename(string(args[1]), string(args[2])) {
		return resp.Error("ERR no such key")
	}
	return okReply()
}
