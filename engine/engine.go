// Package engine is the gnet-backed connection loop: it accepts TCP
// connections, frames RESP commands from the accumulated byte stream, and
// dispatches each one through a pkg/command.Registry against a shared
// pkg/store.Store, writing the encoded reply back out.
//
// The event-driven shape — one gnet.EventHandler, one buffer per
// connection, OnTraffic doing the framing — is carried over from this
// server's original bring-your-own-handler RedHub framework, now wired
// concretely to this server's own command surface instead of an
// application-supplied callback.
package engine

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/lanterndb/lantern/pkg/aof"
	"github.com/lanterndb/lantern/pkg/command"
	"github.com/lanterndb/lantern/pkg/resp"
	"github.com/lanterndb/lantern/pkg/store"
)

// Action mirrors gnet.Action for the subset a command dispatch can request.
type Action int

const (
	None Action = iota
	Close
	Shutdown
)

// Options configures the server's network behavior. Most fields are
// threaded straight through to the underlying gnet/v2 engine.
type Options struct {
	Multicore       bool
	LockOSThread    bool
	ReadBufferCap   int
	LB              gnet.LoadBalancing
	NumEventLoop    int
	ReusePort       bool
	TCPKeepAlive    time.Duration
	TCPKeepCount    int
	TCPKeepInterval time.Duration
	TCPNoDelay      gnet.TCPSocketOpt
	SocketRecvBuffer int
	SocketSendBuffer int
	EdgeTriggeredIO  bool

	TLSListenEnable bool
	TLSCertFile     string
	TLSKeyFile      string
	TLSAddr         string

	// MaxClients caps concurrent connections; OnOpen refuses past this
	// admission limit (spec §5), enforced with a semaphore.Weighted
	// acquired here and released in OnClose.
	MaxClients int

	// IdleTimeout reaps connections that have sent no traffic for this
	// long, checked on the periodic OnTick (spec §4.5). Zero disables
	// reaping.
	IdleTimeout time.Duration
}

// connState is the per-connection accumulation buffer, RESP parser, and
// protocol/DB negotiation state — the concrete replacement for the
// framework's original anonymous connBuffer.
type connState struct {
	gnetConn   gnet.Conn
	buf        bytes.Buffer
	parser     resp.Parser
	encoder    *resp.Encoder
	db         int
	lastActive time.Time
}

func (c *connState) ProtoVersion() int { return int(c.encoder.Version()) }
func (c *connState) SetProtoVersion(v int) {
	if v == 3 {
		c.encoder.SetVersion(resp.V3)
	} else {
		c.encoder.SetVersion(resp.V2)
	}
}
func (c *connState) DB() int { return c.db }
func (c *connState) SelectDB(n int) bool {
	if n != 0 {
		return false
	}
	c.db = n
	return true
}
func (c *connState) RemoteAddr() string { return c.gnetConn.RemoteAddr().String() }

// Server is the concrete RESP server: it owns the keyspace, the command
// registry, the optional AOF writer, and the live connection table.
type Server struct {
	registry  *command.Registry
	store     *store.Store
	aofWriter *aof.Writer
	log       *zap.SugaredLogger

	connMap  map[gnet.Conn]*connState
	connSync sync.RWMutex

	sem         *semaphore.Weighted
	idleTimeout time.Duration

	mu          sync.Mutex
	addr        string
	tcpAddr     string
	running     bool
	eng         gnet.Engine
	tlsListener net.Listener
}

// NewServer wires a Server around an already-populated command.Registry, a
// Store, and an optional AOF writer (nil disables persistence).
func NewServer(registry *command.Registry, st *store.Store, aofWriter *aof.Writer, log *zap.SugaredLogger, maxClients int) *Server {
	if maxClients <= 0 {
		maxClients = 10000
	}
	return &Server{
		registry:  registry,
		store:     st,
		aofWriter: aofWriter,
		log:       log,
		connMap:   make(map[gnet.Conn]*connState),
		sem:       semaphore.NewWeighted(int64(maxClients)),
	}
}

func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.mu.Lock()
	s.eng = eng
	s.mu.Unlock()
	return gnet.None
}

func (s *Server) OnShutdown(eng gnet.Engine) {}

func (s *Server) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	if !s.sem.TryAcquire(1) {
		return resp.NewEncoder().Encode(nil, resp.Error("ERR max number of clients reached")), gnet.Close
	}
	cs := &connState{gnetConn: c, lastActive: time.Now(), encoder: resp.NewEncoder()}
	s.connSync.Lock()
	s.connMap[c] = cs
	s.connSync.Unlock()
	return nil, gnet.None
}

func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	s.connSync.Lock()
	if _, ok := s.connMap[c]; ok {
		delete(s.connMap, c)
		s.sem.Release(1)
	}
	s.connSync.Unlock()
	return gnet.None
}

// OnTraffic frames complete RESP commands (Array form or the inline
// compatibility fallback) out of the accumulated buffer and dispatches each
// one through the command registry, per spec §4.5.
func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	s.connSync.RLock()
	cs, ok := s.connMap[c]
	s.connSync.RUnlock()
	if !ok {
		return gnet.None
	}

	data, _ := c.Next(-1)
	if len(data) == 0 {
		return gnet.None
	}
	cs.buf.Write(data)
	cs.lastActive = time.Now()

	var out []byte
	closeAfter := false
	for {
		buf := cs.buf.Bytes()
		if len(buf) == 0 {
			break
		}
		n, args, status, err := resp.ReadCommand(buf, &cs.parser)
		if status == resp.StatusIncomplete {
			break
		}
		rest := buf[n:]
		cs.buf.Reset()
		cs.buf.Write(rest)

		if status == resp.StatusInvalid {
			out = cs.encoder.Encode(out, resp.Error("ERR Protocol error: "+errString(err)))
			closeAfter = true
			break
		}
		if len(args) == 0 {
			continue
		}
		if strings.EqualFold(string(args[0]), "QUIT") {
			out = cs.encoder.Encode(out, resp.SimpleString("OK"))
			closeAfter = true
			break
		}

		env := &command.Env{Store: s.store, Conn: cs}
		reply := s.registry.Exec(env, args, s.notifyAOF)
		out = cs.encoder.Encode(out, reply)
	}

	if len(out) > 0 {
		_, _ = c.Write(out)
	}
	if closeAfter {
		return gnet.Close
	}
	return gnet.None
}

func errString(err error) string {
	if err == nil {
		return "malformed request"
	}
	return err.Error()
}

// notifyAOF is the command.WriteNotifier passed to Registry.Exec. A
// non-nil return puts the registry into degraded/MISCONF mode (spec §7);
// Exec calls it while still holding the Store lock the write itself took,
// so append order always matches mutation order.
func (s *Server) notifyAOF(args [][]byte) error {
	if s.aofWriter == nil {
		return nil
	}
	if err := s.aofWriter.Append(args); err != nil {
		s.log.Errorw("aof append failed", "error", err)
		return err
	}
	return nil
}

// OnTick reaps idle connections, matching the periodic-ticker hook the
// original framework already threaded through Options.Ticker.
func (s *Server) OnTick() (time.Duration, gnet.Action) {
	if s.idleTimeout <= 0 {
		return time.Second, gnet.None
	}
	now := time.Now()
	s.connSync.RLock()
	var stale []gnet.Conn
	for c, cs := range s.connMap {
		if now.Sub(cs.lastActive) > s.idleTimeout {
			stale = append(stale, c)
		}
	}
	s.connSync.RUnlock()
	for _, c := range stale {
		_ = c.Close()
	}
	return s.idleTimeout / 4, gnet.None
}

func deriveTLSAddr(tcpAddr string) string {
	if !strings.HasPrefix(tcpAddr, "tcp://") {
		return ""
	}
	hostPort := strings.TrimPrefix(tcpAddr, "tcp://")
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return ""
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ""
	}
	return "tcp://" + net.JoinHostPort(host, strconv.Itoa(port+1))
}

func (s *Server) startTLSListener(options Options) error {
	cert, err := tls.LoadX509KeyPair(options.TLSCertFile, options.TLSKeyFile)
	if err != nil {
		return err
	}
	tlsAddr := options.TLSAddr
	if tlsAddr == "" {
		tlsAddr = deriveTLSAddr(s.tcpAddr)
		if tlsAddr == "" {
			return errors.New("failed to derive TLS address from TCP address")
		}
	}
	listenAddr := strings.TrimPrefix(tlsAddr, "tcp://")
	s.tlsListener, err = tls.Listen("tcp", listenAddr, &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		return err
	}
	tcpForwardAddr := strings.TrimPrefix(s.tcpAddr, "tcp://")
	go s.acceptTLSConnections(tcpForwardAddr)
	return nil
}

func (s *Server) acceptTLSConnections(tcpAddr string) {
	for {
		conn, err := s.tlsListener.Accept()
		if err != nil {
			if !s.running {
				return
			}
			continue
		}
		go s.proxyTLSConn(conn, tcpAddr)
	}
}

func (s *Server) proxyTLSConn(tlsConn net.Conn, tcpAddr string) {
	defer tlsConn.Close()
	tcpConn, err := net.Dial("tcp", tcpAddr)
	if err != nil {
		return
	}
	defer tcpConn.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = ioCopy(tcpConn, tlsConn)
	}()
	go func() {
		defer wg.Done()
		_, _ = ioCopy(tlsConn, tcpConn)
	}()
	wg.Wait()
}

func ioCopy(dst net.Conn, src net.Conn) (int64, error) {
	buf := make([]byte, 4096)
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err != nil {
			return total, err
		}
	}
}

// ListenAndServe starts s on addr (format "tcp://host:port") and blocks
// until the server stops.
func ListenAndServe(addr string, options Options, s *Server) error {
	if options.TLSListenEnable && (options.TLSCertFile == "" || options.TLSKeyFile == "") {
		return errors.New("TLSListenEnable requires TLSCertFile and TLSKeyFile")
	}

	s.idleTimeout = options.IdleTimeout
	if options.MaxClients > 0 {
		s.sem = semaphore.NewWeighted(int64(options.MaxClients))
	}

	var opts []gnet.Option
	if options.Multicore {
		opts = append(opts, gnet.WithMulticore(true))
	}
	if options.LockOSThread {
		opts = append(opts, gnet.WithLockOSThread(true))
	}
	if options.ReadBufferCap > 0 {
		opts = append(opts, gnet.WithReadBufferCap(options.ReadBufferCap))
	}
	if options.NumEventLoop > 0 {
		opts = append(opts, gnet.WithNumEventLoop(options.NumEventLoop))
	} else if options.LB != gnet.RoundRobin {
		opts = append(opts, gnet.WithLoadBalancing(options.LB))
	}
	if options.ReusePort {
		opts = append(opts, gnet.WithReusePort(true))
	}
	opts = append(opts, gnet.WithTicker(true))
	if options.TCPKeepAlive > 0 {
		opts = append(opts, gnet.WithTCPKeepAlive(options.TCPKeepAlive))
	}
	if options.TCPKeepCount > 0 {
		opts = append(opts, gnet.WithTCPKeepCount(options.TCPKeepCount))
	}
	if options.TCPKeepInterval > 0 {
		opts = append(opts, gnet.WithTCPKeepInterval(options.TCPKeepInterval))
	}
	opts = append(opts, gnet.WithTCPNoDelay(options.TCPNoDelay))
	if options.SocketRecvBuffer > 0 {
		opts = append(opts, gnet.WithSocketRecvBuffer(options.SocketRecvBuffer))
	}
	if options.SocketSendBuffer > 0 {
		opts = append(opts, gnet.WithSocketSendBuffer(options.SocketSendBuffer))
	}
	if options.EdgeTriggeredIO {
		opts = append(opts, gnet.WithEdgeTriggeredIO(true))
	}

	s.mu.Lock()
	s.addr = addr
	s.tcpAddr = addr
	s.running = true
	s.mu.Unlock()

	if options.TLSListenEnable {
		if err := s.startTLSListener(options); err != nil {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return err
		}
	}

	err := gnet.Run(s, addr, opts...)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	if s.tlsListener != nil {
		s.tlsListener.Close()
	}
	return err
}

// Close gracefully stops the server.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return errors.New("server not running")
	}
	s.running = false
	if s.tlsListener != nil {
		_ = s.tlsListener.Close()
	}
	return s.eng.Stop(context.Background())
}
