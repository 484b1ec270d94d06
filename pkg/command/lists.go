package command

import (
	"strconv"

	"github.com/lanterndb/lantern/pkg/resp"
)

func registerListCommands(r *Registry) {
	r.register(&Command{Name: "LPUSH", Arity: -3, Class: ClassWrite, Fn: cmdLPush})
	r.register(&Command{Name: "RPUSH", Arity: -3, Class: ClassWrite, Fn: cmdRPush})
	r.register(&Command{Name: "LPOP", Arity: -2, Class: ClassWrite, Fn: cmdLPop})
	r.register(&Command{Name: "RPOP", Arity: -2, Class: ClassWrite, Fn: cmdRPop})
	r.register(&Command{Name: "LLEN", Arity: 2, Class: ClassRead, Fn: cmdLLen})
	r.register(&Command{Name: "LRANGE", Arity: 4, Class: ClassRead, Fn: cmdLRange})
	r.register(&Command{Name: "LINDEX", Arity: 3, Class: ClassRead, Fn: cmdLIndex})
	r.register(&Command{Name: "LSET", Arity: 4, Class: ClassWrite, Fn: cmdLSet})
	r.register(&Command{Name: "LREM", Arity: 4, Class: ClassWrite, Fn: cmdLRem})
}

func cmdLPush(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.LPush(string(args[1]), args[2:]...)
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdRPush(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.RPush(string(args[1]), args[2:]...)
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func parseCount(args [][]byte, def int) (int, bool) {
	if len(args) < 3 {
		return def, true
	}
	n, err := strconv.Atoi(string(args[2]))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func cmdLPop(env *Env, args [][]byte) resp.Value {
	count, ok := parseCount(args, 1)
	if !ok {
		return resp.Error("ERR value is out of range, must be positive")
	}
	popped, exists, err := env.Store.LPop(string(args[1]), count)
	if err != nil {
		return asError(err)
	}
	if !exists {
		if len(args) == 3 {
			return resp.NullArray()
		}
		return resp.NullBulk()
	}
	if len(args) == 2 {
		if len(popped) == 0 {
			return resp.NullBulk()
		}
		return resp.BulkString(popped[0])
	}
	return arrayOfBulk(popped)
}

func cmdRPop(env *Env, args [][]byte) resp.Value {
	count, ok := parseCount(args, 1)
	if !ok {
		return resp.Error("ERR value is out of range, must be positive")
	}
	popped, exists, err := env.Store.RPop(string(args[1]), count)
	if err != nil {
		return asError(err)
	}
	if !exists {
		if len(args) == 3 {
			return resp.NullArray()
		}
		return resp.NullBulk()
	}
	if len(args) == 2 {
		if len(popped) == 0 {
			return resp.NullBulk()
		}
		return resp.BulkString(popped[0])
	}
	return arrayOfBulk(popped)
}

func cmdLLen(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.LLen(string(args[1]))
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdLRange(env *Env, args [][]byte) resp.Value {
	start, err1 := strconv.Atoi(string(args[2]))
	stop, err2 := strconv.Atoi(string(args[3]))
	if err1 != nil || err2 != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	vals, err := env.Store.LRange(string(args[1]), start, stop)
	if err != nil {
		return asError(err)
	}
	return arrayOfBulk(vals)
}

func cmdLIndex(env *Env, args [][]byte) resp.Value {
	idx, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	v, ok, serr := env.Store.LIndex(string(args[1]), idx)
	if serr != nil {
		return asError(serr)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString(v)
}

func cmdLSet(env *Env, args [][]byte) resp.Value {
	idx, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	if serr := env.Store.LSet(string(args[1]), idx, args[3]); serr != nil {
		return asError(serr)
	}
	return okReply()
}

func cmdLRem(env *Env, args [][]byte) resp.Value {
	count, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	n, serr := env.Store.LRem(string(args[1]), count, args[3])
	if serr != nil {
		return asError(serr)
	}
	return resp.Integer(int64(n))
}
