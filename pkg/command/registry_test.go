package command

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanterndb/lantern/pkg/resp"
	"github.com/lanterndb/lantern/pkg/store"
)

type fakeConn struct {
	proto int
	db    int
}

func (f *fakeConn) ProtoVersion() int     { return f.proto }
func (f *fakeConn) SetProtoVersion(v int) { f.proto = v }
func (f *fakeConn) DB() int               { return f.db }
func (f *fakeConn) SelectDB(n int) bool {
	if n != 0 {
		return false
	}
	f.db = n
	return true
}
func (f *fakeConn) RemoteAddr() string { return "127.0.0.1:0" }

func newTestEnv() (*Registry, *Env) {
	r := NewRegistry()
	env := &Env{Store: store.New(), Conn: &fakeConn{proto: 2}}
	return r, env
}

func exec(t *testing.T, r *Registry, env *Env, parts ...string) resp.Value {
	t.Helper()
	args := make([][]byte, len(parts))
	for i, p := range parts {
		args[i] = []byte(p)
	}
	return r.Exec(env, args, nil)
}

func TestPingPong(t *testing.T) {
	r, env := newTestEnv()
	v := exec(t, r, env, "PING")
	assert.Equal(t, resp.SimpleString("PONG"), v)
}

func TestUnknownCommand(t *testing.T) {
	r, env := newTestEnv()
	v := exec(t, r, env, "NOPE")
	assert.Equal(t, resp.KindError, v.Kind)
}

func TestWrongArity(t *testing.T) {
	r, env := newTestEnv()
	v := exec(t, r, env, "GET")
	assert.Equal(t, resp.KindError, v.Kind)
}

func TestSetThenGet(t *testing.T) {
	r, env := newTestEnv()
	v := exec(t, r, env, "SET", "k", "v")
	assert.Equal(t, resp.SimpleString("OK"), v)
	v = exec(t, r, env, "GET", "k")
	assert.Equal(t, resp.BulkString([]byte("v")), v)
}

func TestSetNXSkipsOnExisting(t *testing.T) {
	r, env := newTestEnv()
	exec(t, r, env, "SET", "k", "v1")
	v := exec(t, r, env, "SET", "k", "v2", "NX")
	assert.Equal(t, resp.NullBulk(), v)
}

func TestIncrDecr(t *testing.T) {
	r, env := newTestEnv()
	v := exec(t, r, env, "INCR", "counter")
	assert.Equal(t, resp.Integer(1), v)
	v = exec(t, r, env, "INCRBY", "counter", "5")
	assert.Equal(t, resp.Integer(6), v)
	v = exec(t, r, env, "DECR", "counter")
	assert.Equal(t, resp.Integer(5), v)
}

func TestWrongTypeReply(t *testing.T) {
	r, env := newTestEnv()
	exec(t, r, env, "SET", "k", "v")
	v := exec(t, r, env, "LPUSH", "k", "a")
	require.Equal(t, resp.KindError, v.Kind)
	assert.Contains(t, v.Str, "WRONGTYPE")
}

func TestListRoundTrip(t *testing.T) {
	r, env := newTestEnv()
	exec(t, r, env, "RPUSH", "l", "a", "b", "c")
	v := exec(t, r, env, "LRANGE", "l", "0", "-1")
	require.Equal(t, resp.KindArray, v.Kind)
	require.Len(t, v.Elems, 3)
	assert.Equal(t, "a", string(v.Elems[0].Bulk))
}

func TestZAddAndRange(t *testing.T) {
	r, env := newTestEnv()
	exec(t, r, env, "ZADD", "z", "1", "a", "2", "b")
	v := exec(t, r, env, "ZRANGE", "z", "0", "-1")
	require.Equal(t, resp.KindArray, v.Kind)
	require.Len(t, v.Elems, 2)
	assert.Equal(t, "a", string(v.Elems[0].Bulk))
}

func TestAOFNotifierCalledOnlyOnSuccessfulWrite(t *testing.T) {
	r, env := newTestEnv()
	var notified [][]byte
	args := [][]byte{[]byte("SET"), []byte("k"), []byte("v")}
	r.Exec(env, args, func(a [][]byte) error { notified = append(notified, a[0]); return nil })
	assert.Len(t, notified, 1)

	badArgs := [][]byte{[]byte("GET")}
	r.Exec(env, badArgs, func(a [][]byte) error { notified = append(notified, a[0]); return nil })
	assert.Len(t, notified, 1)
}

// TestAOFNotifyOrderMatchesMutationOrder pins down the ordering invariant a
// maintainer review flagged: concurrent writers must append to the AOF in
// the same order they mutated the store, which requires Exec to hold the
// Store lock across both the handler and the notify call.
func TestAOFNotifyOrderMatchesMutationOrder(t *testing.T) {
	r, env := newTestEnv()
	var mu sync.Mutex
	var order []string

	notify := func(a [][]byte) error {
		mu.Lock()
		order = append(order, string(a[2]))
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for _, v := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			r.Exec(env, [][]byte{[]byte("RPUSH"), []byte("l"), []byte(v)}, notify)
		}(v)
	}
	wg.Wait()

	v := exec(t, r, env, "LRANGE", "l", "0", "-1")
	require.Equal(t, resp.KindArray, v.Kind)
	require.Len(t, v.Elems, 4)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 4)
	for i, elem := range v.Elems {
		assert.Equal(t, order[i], string(elem.Bulk))
	}
}

// TestDegradedModeRejectsWritesAfterAOFFailure exercises the §7 MISCONF
// latch: once a write's AOF notify fails, subsequent writes are refused
// without running their handler, while reads still work.
func TestDegradedModeRejectsWritesAfterAOFFailure(t *testing.T) {
	r, env := newTestEnv()
	failing := func(a [][]byte) error { return errors.New("disk full") }

	v := r.Exec(env, [][]byte{[]byte("SET"), []byte("k"), []byte("v")}, failing)
	require.Equal(t, resp.KindError, v.Kind)
	assert.Contains(t, v.Str, "ERR")

	v = r.Exec(env, [][]byte{[]byte("SET"), []byte("k2"), []byte("v2")}, failing)
	require.Equal(t, resp.KindError, v.Kind)
	assert.Contains(t, v.Str, "MISCONF")

	v = exec(t, r, env, "GET", "k")
	assert.Equal(t, resp.BulkString([]byte("v")), v)

	v = exec(t, r, env, "EXISTS", "k2")
	assert.Equal(t, resp.Integer(0), v)
}

func TestZAddRejectsNaNScore(t *testing.T) {
	r, env := newTestEnv()
	v := exec(t, r, env, "ZADD", "z", "nan", "m")
	require.Equal(t, resp.KindError, v.Kind)

	exec(t, r, env, "ZADD", "z", "+inf", "m")
	v = exec(t, r, env, "ZADD", "z", "INCR", "-inf", "m")
	require.Equal(t, resp.KindError, v.Kind)
	assert.Contains(t, v.Str, "NaN")
}

func TestZCountRejectsNaNBound(t *testing.T) {
	r, env := newTestEnv()
	exec(t, r, env, "ZADD", "z", "1", "a")
	v := exec(t, r, env, "ZCOUNT", "z", "nan", "+inf")
	require.Equal(t, resp.KindError, v.Kind)
}
