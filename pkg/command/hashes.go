package command

import (
	"strconv"

	"github.com/lanterndb/lantern/pkg/resp"
)

func registerHashCommands(r *Registry) {
	r.register(&Command{Name: "HSET", Arity: -4, Class: ClassWrite, Fn: cmdHSet})
	r.register(&Command{Name: "HGET", Arity: 3, Class: ClassRead, Fn: cmdHGet})
	r.register(&Command{Name: "HDEL", Arity: -3, Class: ClassWrite, Fn: cmdHDel})
	r.register(&Command{Name: "HMGET", Arity: -3, Class: ClassRead, Fn: cmdHMGet})
	r.register(&Command{Name: "HGETALL", Arity: 2, Class: ClassRead, Fn: cmdHGetAll})
	r.register(&Command{Name: "HKEYS", Arity: 2, Class: ClassRead, Fn: cmdHKeys})
	r.register(&Command{Name: "HVALS", Arity: 2, Class: ClassRead, Fn: cmdHVals})
	r.register(&Command{Name: "HLEN", Arity: 2, Class: ClassRead, Fn: cmdHLen})
	r.register(&Command{Name: "HEXISTS", Arity: 3, Class: ClassRead, Fn: cmdHExists})
	r.register(&Command{Name: "HINCRBY", Arity: 4, Class: ClassWrite, Fn: cmdHIncrBy})
}

func cmdHSet(env *Env, args [][]byte) resp.Value {
	if (len(args)-2)%2 != 0 {
		return resp.Error("ERR wrong number of arguments for 'hset' command")
	}
	fields := make(map[string][]byte, (len(args)-2)/2)
	for i := 2; i < len(args); i += 2 {
		fields[string(args[i])] = args[i+1]
	}
	n, err := env.Store.HSet(string(args[1]), fields)
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdHGet(env *Env, args [][]byte) resp.Value {
	v, ok, err := env.Store.HGet(string(args[1]), string(args[2]))
	if err != nil {
		return asError(err)
	}
	return bulkOrNil(v, ok)
}

func cmdHDel(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.HDel(string(args[1]), stringArgs(args[2:])...)
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdHMGet(env *Env, args [][]byte) resp.Value {
	vals, err := env.Store.HMGet(string(args[1]), stringArgs(args[2:]))
	if err != nil {
		return asError(err)
	}
	return arrayOfBulk(vals)
}

func cmdHGetAll(env *Env, args [][]byte) resp.Value {
	m, err := env.Store.HGetAll(string(args[1]))
	if err != nil {
		return asError(err)
	}
	pairs := make([]resp.Pair, 0, len(m))
	for f, v := range m {
		pairs = append(pairs, resp.Pair{Key: resp.BulkFromString(f), Value: resp.BulkString(v)})
	}
	return resp.Map(pairs...)
}

func cmdHKeys(env *Env, args [][]byte) resp.Value {
	keys, err := env.Store.HKeys(string(args[1]))
	if err != nil {
		return asError(err)
	}
	return arrayOfStrings(keys)
}

func cmdHVals(env *Env, args [][]byte) resp.Value {
	vals, err := env.Store.HVals(string(args[1]))
	if err != nil {
		return asError(err)
	}
	return arrayOfBulk(vals)
}

func cmdHLen(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.HLen(string(args[1]))
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdHExists(env *Env, args [][]byte) resp.Value {
	ok, err := env.Store.HExists(string(args[1]), string(args[2]))
	if err != nil {
		return asError(err)
	}
	if ok {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdHIncrBy(env *Env, args [][]byte) resp.Value {
	n, err := strconv.ParseInt(string(args[3]), 10, 64)
	if err != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	result, serr := env.Store.HIncrBy(string(args[1]), string(args[2]), n)
	if serr != nil {
		return asError(serr)
	}
	return resp.Integer(result)
}
