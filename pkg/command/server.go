package command

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/lanterndb/lantern/pkg/resp"
)

func registerServerCommands(r *Registry) {
	r.register(&Command{Name: "DBSIZE", Arity: 1, Class: ClassRead, Fn: cmdDBSize})
	r.register(&Command{Name: "FLUSHDB", Arity: -1, Class: ClassWrite, Fn: cmdFlushAll})
	r.register(&Command{Name: "FLUSHALL", Arity: -1, Class: ClassWrite, Fn: cmdFlushAll})
	r.register(&Command{Name: "INFO", Arity: -1, Class: ClassAdmin, Fn: cmdInfo})
	r.register(&Command{Name: "DEBUG", Arity: -2, Class: ClassAdmin, Fn: cmdDebug})
}

func cmdDBSize(env *Env, args [][]byte) resp.Value {
	return resp.Integer(int64(env.Store.DBSize()))
}

func cmdFlushAll(env *Env, args [][]byte) resp.Value {
	env.Store.FlushAll()
	return okReply()
}

// cmdInfo reports a §4.3 subset of the real server/keyspace INFO sections,
// self-sampled from runtime.MemStats rather than an OS-level sampler (see
// DESIGN.md for why gopsutil was not wired here).
func cmdInfo(env *Env, args [][]byte) resp.Value {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var b strings.Builder
	fmt.Fprintf(&b, "# Server\r\n")
	fmt.Fprintf(&b, "redis_version:7.4.0-lantern\r\n")
	fmt.Fprintf(&b, "process_id:%d\r\n", os.Getpid())
	fmt.Fprintf(&b, "run_id:lantern\r\n")
	fmt.Fprintf(&b, "tcp_port:6379\r\n")
	fmt.Fprintf(&b, "\r\n# Memory\r\n")
	fmt.Fprintf(&b, "used_memory:%d\r\n", m.HeapAlloc)
	fmt.Fprintf(&b, "used_memory_rss:%d\r\n", m.Sys)
	fmt.Fprintf(&b, "\r\n# Keyspace\r\n")
	fmt.Fprintf(&b, "db0:keys=%d,expires=0,avg_ttl=0\r\n", env.Store.DBSize())
	return resp.BulkFromString(b.String())
}

func cmdDebug(env *Env, args [][]byte) resp.Value {
	if len(args) < 2 {
		return syntaxErr()
	}
	sub := strings.ToUpper(string(args[1]))
	switch sub {
	case "SLEEP":
		if len(args) != 3 {
			return syntaxErr()
		}
		secs, err := strconv.ParseFloat(string(args[2]), 64)
		if err != nil {
			return resp.Error("ERR value is not a valid float")
		}
		time.Sleep(time.Duration(secs * float64(time.Second)))
		return okReply()
	default:
		return resp.Error("ERR unknown DEBUG subcommand '" + sub + "'")
	}
}
