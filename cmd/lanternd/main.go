// Command lanternd starts the RESP-compatible in-memory data server: it
// loads configuration, wires up logging, replays the AOF if one exists, and
// serves connections until terminated.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lanterndb/lantern/engine"
	"github.com/lanterndb/lantern/pkg/aof"
	"github.com/lanterndb/lantern/pkg/command"
	"github.com/lanterndb/lantern/pkg/config"
	"github.com/lanterndb/lantern/pkg/logging"
	"github.com/lanterndb/lantern/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "lanternd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New("lanternd", nil)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer log.Sync()

	st := store.New()
	registry := command.NewRegistry()

	fsyncPolicy, err := aof.ParseFsyncPolicy(cfg.AOFFsync)
	if err != nil {
		return err
	}
	aofWriter, err := aof.Open(cfg.AOFPath, fsyncPolicy, log)
	if err != nil {
		return fmt.Errorf("aof: %w", err)
	}
	defer aofWriter.Close()

	replayer := aof.NewReplayer(log)
	if err := replayer.Replay(aofWriter.Path(), func(args [][]byte) {
		registry.Exec(&command.Env{Store: st, AOFSuppress: true, Conn: replayConn{}}, args, nil)
	}); err != nil {
		return fmt.Errorf("aof replay: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	sweepCfg := store.DefaultSweepConfig()
	sweepCfg.Interval = time.Duration(cfg.ExpirySweepIntervalMs) * time.Millisecond
	sweepCfg.SampleSize = cfg.ExpirySweepSample
	st.RunActiveExpiry(gctx, g, sweepCfg)

	aofWriter.RunFlushTicker(gctx, g)

	srv := engine.NewServer(registry, st, aofWriter, log, cfg.MaxClients)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infow("shutting down")
		_ = srv.Close()
		cancel()
	}()

	log.Infow("starting lanternd", "bind", cfg.Bind, "aof_path", cfg.AOFPath, "aof_fsync", cfg.AOFFsync)
	addr := "tcp://" + cfg.Bind
	if err := engine.ListenAndServe(addr, engine.Options{
		Multicore:  true,
		MaxClients: cfg.MaxClients,
	}, srv); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return g.Wait()
}

// replayConn satisfies command.Conn for AOF replay: protocol version and DB
// selection are irrelevant during replay since no reply is ever written.
type replayConn struct{}

func (replayConn) ProtoVersion() int     { return 2 }
func (replayConn) SetProtoVersion(int)   {}
func (replayConn) DB() int               { return 0 }
func (replayConn) SelectDB(int) bool     { return true }
func (replayConn) RemoteAddr() string    { return "replay" }
