// Package command implements the typed dispatcher: argument-shape and
// type-compatibility validation for every recognized command, executed
// against a pkg/store.Store and, for writes, handed to an AOF sink after the
// mutation has committed.
package command

import (
	"strings"
	"sync"

	"github.com/lanterndb/lantern/pkg/resp"
	"github.com/lanterndb/lantern/pkg/store"
)

// Class classifies a command for AOF notification and (future) read/write
// routing.
type Class int

const (
	ClassRead Class = iota
	ClassWrite
	ClassAdmin
)

// Conn is the minimal connection-state surface a handler needs. The engine
// package's connection wrapper satisfies it; pkg/command never imports
// engine, keeping the dependency one-directional.
type Conn interface {
	ProtoVersion() int
	SetProtoVersion(int)
	DB() int
	SelectDB(int) bool
	RemoteAddr() string
}

// Handler executes one already-arity-checked command. args[0] is the
// command name as received; args[1:] are its arguments.
type Handler func(env *Env, args [][]byte) resp.Value

// Env is threaded through every Handler: the keyspace, the originating
// connection's protocol/DB state, and whether this call is an AOF replay
// (which must not re-append to the AOF it is itself replaying).
type Env struct {
	Store        *store.Store
	Conn         Conn
	AOFSuppress  bool
}

// Command is one registered command's static shape.
type Command struct {
	Name  string
	Arity int // positive: exact argument count (including name); negative: minimum
	Class Class
	Fn    Handler
}

func (c *Command) arityOK(args [][]byte) bool {
	if c.Arity >= 0 {
		return len(args) == c.Arity
	}
	return len(args) >= -c.Arity
}

// Registry is the name→Command lookup table, matched ASCII-case-insensitively.
// It also owns the server-wide AOF degraded-mode latch (spec §7): once a
// write's AOF append fails, degraded is set and every subsequent write is
// refused with -MISCONF until the process restarts (there is no
// BGREWRITEAOF-style recovery path in scope here).
type Registry struct {
	commands map[string]*Command

	degradedMu sync.Mutex
	degraded   bool
}

// NewRegistry builds a Registry with every command group wired in.
func NewRegistry() *Registry {
	r := &Registry{commands: make(map[string]*Command)}
	registerConnectionCommands(r)
	registerKeyCommands(r)
	registerStringCommands(r)
	registerListCommands(r)
	registerSetCommands(r)
	registerHashCommands(r)
	registerZSetCommands(r)
	registerServerCommands(r)
	return r
}

func (r *Registry) register(c *Command) {
	r.commands[strings.ToLower(c.Name)] = c
}

// Lookup returns the Command for name, case-insensitively.
func (r *Registry) Lookup(name string) (*Command, bool) {
	c, ok := r.commands[strings.ToLower(name)]
	return c, ok
}

// WriteNotifier receives the verbatim argument Array of every command that
// completes as a write, for AOF append, and reports whether the append
// itself succeeded. Passed to Exec per call; nil means no AOF is attached.
type WriteNotifier func(args [][]byte) error

// Exec validates and executes one command given as its raw argument
// vector (args[0] is the command name). It always returns a reply Value;
// dispatch errors (unknown command, wrong arity) are encoded as RESP errors
// rather than returned as a Go error, matching the wire contract directly.
//
// Exec is the sole holder of Store.Lock for the whole call, spanning both
// cmd.Fn and the AOF notify that follows a successful write (spec §4.4/§5):
// pkg/store's methods no longer lock internally, so this is the one place
// mutation order and AOF append order are forced to agree. The lock is
// taken for every command class, not just writes, because lazy expiry
// deletes from the keyspace map on read paths too (pkg/store/store.go).
func (r *Registry) Exec(env *Env, args [][]byte, notify WriteNotifier) resp.Value {
	if len(args) == 0 {
		return resp.Error("ERR empty command")
	}
	name := string(args[0])
	cmd, ok := r.Lookup(name)
	if !ok {
		return resp.Error("ERR unknown command '" + name + "'")
	}
	if !cmd.arityOK(args) {
		return resp.Error("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
	}
	if cmd.Class == ClassWrite && !env.AOFSuppress && r.isDegraded() {
		return resp.Error("MISCONF Errors writing to the append-only file: can't process commands")
	}

	env.Store.Lock()
	defer env.Store.Unlock()

	reply := cmd.Fn(env, args)
	if cmd.Class == ClassWrite && !env.AOFSuppress && !isErrorReply(reply) && notify != nil {
		if err := notify(args); err != nil {
			r.setDegraded()
			return resp.Error("ERR " + err.Error())
		}
	}
	return reply
}

func (r *Registry) isDegraded() bool {
	r.degradedMu.Lock()
	defer r.degradedMu.Unlock()
	return r.degraded
}

func (r *Registry) setDegraded() {
	r.degradedMu.Lock()
	r.degraded = true
	r.degradedMu.Unlock()
}

func isErrorReply(v resp.Value) bool { return v.Kind == resp.KindError }

// --- shared error/value helpers used across every command-group file -----

func wrongTypeErr() resp.Value {
	return resp.Error(store.ErrWrongType{}.Error())
}

func notIntegerErr() resp.Value {
	return resp.Error("ERR " + store.ErrNotInteger.Error())
}

func syntaxErr() resp.Value {
	return resp.Error("ERR syntax error")
}

func okReply() resp.Value { return resp.SimpleString("OK") }

func asError(err error) resp.Value {
	if _, ok := err.(store.ErrWrongType); ok {
		return wrongTypeErr()
	}
	if err == store.ErrNotInteger {
		return notIntegerErr()
	}
	return resp.Error("ERR " + err.Error())
}

func bulkOrNil(b []byte, ok bool) resp.Value {
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString(b)
}

func bulkFromBytes(b []byte) resp.Value {
	if b == nil {
		return resp.NullBulk()
	}
	return resp.BulkString(b)
}

func arrayOfBulk(items [][]byte) resp.Value {
	elems := make([]resp.Value, len(items))
	for i, it := range items {
		elems[i] = bulkFromBytes(it)
	}
	return resp.Array(elems...)
}

func arrayOfStrings(items []string) resp.Value {
	elems := make([]resp.Value, len(items))
	for i, it := range items {
		elems[i] = resp.BulkFromString(it)
	}
	return resp.Array(elems...)
}
