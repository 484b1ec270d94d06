package command

import (
	"strconv"
	"strings"

	"github.com/lanterndb/lantern/pkg/resp"
)

func registerConnectionCommands(r *Registry) {
	r.register(&Command{Name: "PING", Arity: -1, Class: ClassAdmin, Fn: cmdPing})
	r.register(&Command{Name: "ECHO", Arity: 2, Class: ClassAdmin, Fn: cmdEcho})
	r.register(&Command{Name: "HELLO", Arity: -1, Class: ClassAdmin, Fn: cmdHello})
	r.register(&Command{Name: "SELECT", Arity: 2, Class: ClassAdmin, Fn: cmdSelect})
	r.register(&Command{Name: "CLIENT", Arity: -2, Class: ClassAdmin, Fn: cmdClient})
	r.register(&Command{Name: "QUIT", Arity: 1, Class: ClassAdmin, Fn: cmdQuit})
	r.register(&Command{Name: "COMMAND", Arity: -1, Class: ClassAdmin, Fn: makeCmdCommand(r)})
}

func cmdPing(env *Env, args [][]byte) resp.Value {
	if len(args) == 1 {
		return resp.SimpleString("PONG")
	}
	if len(args) == 2 {
		return resp.BulkString(args[1])
	}
	return resp.Error("ERR wrong number of arguments for 'ping' command")
}

func cmdEcho(env *Env, args [][]byte) resp.Value {
	return resp.BulkString(args[1])
}

// cmdHello negotiates the protocol version (RESP2⇄RESP3 switching, spec
// §4.5). Only the version-selection argument is honored; AUTH is not
// implemented (§1 non-goals).
func cmdHello(env *Env, args [][]byte) resp.Value {
	version := env.Conn.ProtoVersion()
	if len(args) >= 2 {
		v, err := strconv.Atoi(string(args[1]))
		if err != nil || (v != 2 && v != 3) {
			return resp.Error("NOPROTO unsupported protocol version")
		}
		version = v
		env.Conn.SetProtoVersion(version)
	}
	return resp.Map(
		resp.Pair{Key: resp.BulkFromString("server"), Value: resp.BulkFromString("lantern")},
		resp.Pair{Key: resp.BulkFromString("version"), Value: resp.BulkFromString("1.0.0")},
		resp.Pair{Key: resp.BulkFromString("proto"), Value: resp.Integer(int64(version))},
		resp.Pair{Key: resp.BulkFromString("mode"), Value: resp.BulkFromString("standalone")},
		resp.Pair{Key: resp.BulkFromString("role"), Value: resp.BulkFromString("master")},
		resp.Pair{Key: resp.BulkFromString("modules"), Value: resp.Array()},
	)
}

// cmdSelect only accepts database 0 (§1 non-goals: no multi-database
// support beyond SELECT 0 acknowledgment).
func cmdSelect(env *Env, args [][]byte) resp.Value {
	n, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	if !env.Conn.SelectDB(n) {
		return resp.Error("ERR DB index is out of range")
	}
	return okReply()
}

func cmdClient(env *Env, args [][]byte) resp.Value {
	sub := strings.ToUpper(string(args[1]))
	switch sub {
	case "GETNAME":
		return resp.BulkFromString("")
	case "SETNAME":
		return okReply()
	case "LIST":
		return resp.BulkFromString("addr=" + env.Conn.RemoteAddr())
	default:
		return resp.Error("ERR Unknown CLIENT subcommand '" + sub + "'")
	}
}

func cmdQuit(env *Env, args [][]byte) resp.Value {
	return okReply()
}

// makeCmdCommand closes over the Registry so COMMAND COUNT/DOCS can answer
// from the live table without any handler needing a Registry field in Env.
func makeCmdCommand(r *Registry) Handler {
	return func(env *Env, args [][]byte) resp.Value {
		if len(args) >= 2 && strings.EqualFold(string(args[1]), "COUNT") {
			return resp.Integer(int64(len(r.commands)))
		}
		if len(args) >= 2 && strings.EqualFold(string(args[1]), "DOCS") {
			return resp.Map()
		}
		return resp.Array()
	}
}
