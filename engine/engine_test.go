package engine

import (
	"net"
	"testing"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lanterndb/lantern/pkg/command"
	"github.com/lanterndb/lantern/pkg/store"
)

type mockConn struct {
	gnet.Conn
	closed  bool
	written []byte
	buf     []byte
	ctx     interface{}
}

func (m *mockConn) Write(buf []byte) (int, error) {
	m.written = append(m.written, buf...)
	return len(buf), nil
}

func (m *mockConn) Close() error {
	m.closed = true
	return nil
}

func (m *mockConn) Next(n int) ([]byte, error) {
	if len(m.buf) == 0 {
		return nil, nil
	}
	if n == -1 || n > len(m.buf) {
		buf := m.buf
		m.buf = nil
		return buf, nil
	}
	buf := m.buf[:n]
	m.buf = m.buf[n:]
	return buf, nil
}

func (m *mockConn) Context() interface{}     { return m.ctx }
func (m *mockConn) SetContext(v interface{}) { m.ctx = v }
func (m *mockConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 6379}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	log, err := zap.NewDevelopment()
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(command.NewRegistry(), store.New(), nil, log.Sugar(), 10)
}

func TestOnOpenRegistersConnection(t *testing.T) {
	s := testServer(t)
	mock := &mockConn{}
	out, action := s.OnOpen(mock)
	assert.Nil(t, out)
	assert.Equal(t, gnet.None, action)

	s.connSync.RLock()
	_, ok := s.connMap[mock]
	s.connSync.RUnlock()
	assert.True(t, ok)
}

func TestOnOpenRefusesPastMaxClients(t *testing.T) {
	s := testServer(t)
	s.sem.TryAcquire(10)
	mock := &mockConn{}
	out, action := s.OnOpen(mock)
	assert.Equal(t, gnet.Close, action)
	assert.Contains(t, string(out), "max number of clients")
}

func TestOnCloseReleasesSlot(t *testing.T) {
	s := testServer(t)
	mock := &mockConn{}
	s.OnOpen(mock)
	action := s.OnClose(mock, nil)
	assert.Equal(t, gnet.None, action)

	s.connSync.RLock()
	_, ok := s.connMap[mock]
	s.connSync.RUnlock()
	assert.False(t, ok)
}

func TestOnTrafficPing(t *testing.T) {
	s := testServer(t)
	mock := &mockConn{buf: []byte("*1\r\n$4\r\nPING\r\n")}
	s.OnOpen(mock)

	action := s.OnTraffic(mock)
	assert.Equal(t, gnet.None, action)
	assert.Equal(t, "+PONG\r\n", string(mock.written))
}

func TestOnTrafficMultipleCommandsInOneRead(t *testing.T) {
	s := testServer(t)
	mock := &mockConn{buf: []byte("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n")}
	s.OnOpen(mock)

	action := s.OnTraffic(mock)
	assert.Equal(t, gnet.None, action)
	assert.Equal(t, "+PONG\r\n+PONG\r\n", string(mock.written))
}

func TestOnTrafficIncompleteCommandIsBuffered(t *testing.T) {
	s := testServer(t)
	mock := &mockConn{buf: []byte("*1\r\n$4\r\nPIN")}
	s.OnOpen(mock)

	action := s.OnTraffic(mock)
	assert.Equal(t, gnet.None, action)
	assert.Equal(t, 0, len(mock.written))

	s.connSync.RLock()
	cs := s.connMap[mock]
	s.connSync.RUnlock()
	assert.Equal(t, "*1\r\n$4\r\nPIN", cs.buf.String())
}

func TestOnTrafficQuitClosesConnection(t *testing.T) {
	s := testServer(t)
	mock := &mockConn{buf: []byte("*1\r\n$4\r\nQUIT\r\n")}
	s.OnOpen(mock)

	action := s.OnTraffic(mock)
	assert.Equal(t, gnet.Close, action)
	assert.Equal(t, "+OK\r\n", string(mock.written))
}

func TestOnTrafficSetThenGet(t *testing.T) {
	s := testServer(t)
	mock := &mockConn{buf: []byte("*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\n")}
	s.OnOpen(mock)

	s.OnTraffic(mock)
	assert.Equal(t, "+OK\r\n$1\r\nv\r\n", string(mock.written))
}

func TestOnTickNoopWithoutIdleTimeout(t *testing.T) {
	s := testServer(t)
	delay, action := s.OnTick()
	assert.Equal(t, time.Second, delay)
	assert.Equal(t, gnet.None, action)
}

func TestOnTickReapsIdleConnections(t *testing.T) {
	s := testServer(t)
	s.idleTimeout = time.Millisecond
	mock := &mockConn{}
	s.OnOpen(mock)
	s.connSync.Lock()
	s.connMap[mock].lastActive = time.Now().Add(-time.Hour)
	s.connSync.Unlock()

	_, action := s.OnTick()
	assert.Equal(t, gnet.None, action)
	assert.True(t, mock.closed)
}

func TestCloseNotRunning(t *testing.T) {
	s := testServer(t)
	err := s.Close()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server not running")
}

func TestListenAndServeTLSRequiresCertAndKey(t *testing.T) {
	s := testServer(t)
	err := ListenAndServe("tcp://127.0.0.1:16380", Options{
		TLSListenEnable: true,
		TLSKeyFile:      "testdata/key.pem",
	}, s)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TLSCertFile and TLSKeyFile")
}
