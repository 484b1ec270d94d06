package command

import "github.com/lanterndb/lantern/pkg/resp"

func registerSetCommands(r *Registry) {
	r.register(&Command{Name: "SADD", Arity: -3, Class: ClassWrite, Fn: cmdSAdd})
	r.register(&Command{Name: "SREM", Arity: -3, Class: ClassWrite, Fn: cmdSRem})
	r.register(&Command{Name: "SISMEMBER", Arity: 3, Class: ClassRead, Fn: cmdSIsMember})
	r.register(&Command{Name: "SMEMBERS", Arity: 2, Class: ClassRead, Fn: cmdSMembers})
	r.register(&Command{Name: "SCARD", Arity: 2, Class: ClassRead, Fn: cmdSCard})
	r.register(&Command{Name: "SINTER", Arity: -2, Class: ClassRead, Fn: cmdSInter})
	r.register(&Command{Name: "SUNION", Arity: -2, Class: ClassRead, Fn: cmdSUnion})
	r.register(&Command{Name: "SDIFF", Arity: -2, Class: ClassRead, Fn: cmdSDiff})
}

func stringArgs(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

func cmdSAdd(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.SAdd(string(args[1]), stringArgs(args[2:])...)
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdSRem(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.SRem(string(args[1]), stringArgs(args[2:])...)
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdSIsMember(env *Env, args [][]byte) resp.Value {
	ok, err := env.Store.SIsMember(string(args[1]), string(args[2]))
	if err != nil {
		return asError(err)
	}
	if ok {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdSMembers(env *Env, args [][]byte) resp.Value {
	members, err := env.Store.SMembers(string(args[1]))
	if err != nil {
		return asError(err)
	}
	return arrayOfStrings(members)
}

func cmdSCard(env *Env, args [][]byte) resp.Value {
	n, err := env.Store.SCard(string(args[1]))
	if err != nil {
		return asError(err)
	}
	return resp.Integer(int64(n))
}

func cmdSInter(env *Env, args [][]byte) resp.Value {
	members, err := env.Store.SInter(stringArgs(args[1:])...)
	if err != nil {
		return asError(err)
	}
	return arrayOfStrings(members)
}

func cmdSUnion(env *Env, args [][]byte) resp.Value {
	members, err := env.Store.SUnion(stringArgs(args[1:])...)
	if err != nil {
		return asError(err)
	}
	return arrayOfStrings(members)
}

func cmdSDiff(env *Env, args [][]byte) resp.Value {
	members, err := env.Store.SDiff(stringArgs(args[1:])...)
	if err != nil {
		return asError(err)
	}
	return arrayOfStrings(members)
}
