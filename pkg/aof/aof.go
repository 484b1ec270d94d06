// Package aof implements append-only-file persistence: every successful
// write command is re-serialized as a RESP Array and appended to a single
// log file, replayed in full at startup before the server accepts traffic.
package aof

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lanterndb/lantern/pkg/resp"
)

// FsyncPolicy selects when buffered writes are durably flushed to disk
// (spec §4.4/§6.4).
type FsyncPolicy int

const (
	FsyncAlways FsyncPolicy = iota
	FsyncEverySec
	FsyncNo
)

// ParseFsyncPolicy validates the three recognized §6.4 values.
func ParseFsyncPolicy(s string) (FsyncPolicy, error) {
	switch s {
	case "always":
		return FsyncAlways, nil
	case "everysec":
		return FsyncEverySec, nil
	case "no":
		return FsyncNo, nil
	default:
		return 0, fmt.Errorf("unrecognized aof_fsync value %q", s)
	}
}

// Writer owns the AOF file handle, a bufio.Writer that accumulates
// serialized command Arrays between flushes, and a pooled staging buffer
// that each Append encodes into and reuses, mirroring the way the
// teacher's per-connection connBuffer reuses a bytes.Buffer rather than
// reallocating for every write.
type Writer struct {
	mu       sync.Mutex
	file     *os.File
	buf      *bufio.Writer
	policy   FsyncPolicy
	encoder  resp.Encoder
	log      *zap.SugaredLogger
	pool     *ants.Pool
	staging  *bytebufferpool.ByteBuffer
	pooledBB bytebufferpool.Pool
}

// Open opens (creating if absent) the AOF file at path for appending.
func Open(path string, policy FsyncPolicy, log *zap.SugaredLogger) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	pool, err := ants.NewPool(4)
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &Writer{
		file:   f,
		buf:    bufio.NewWriter(f),
		policy: policy,
		log:    log,
		pool:   pool,
	}
	w.staging = w.pooledBB.Get()
	return w, nil
}

// Path returns the underlying file's path, used by replay at startup.
func (w *Writer) Path() string {
	return w.file.Name()
}

// Append serializes args as a RESP Array and stages it for flush. Under
// FsyncAlways the write is flushed and fsynced before Append returns; under
// FsyncNo it is flushed to the OS without an fsync; under FsyncEverySec it
// is buffered for the background ticker. Callers must hold the Store's write lock when calling Append,
// so append order always matches dispatch order (spec §4.4/§5).
func (w *Writer) Append(args [][]byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.staging.Reset()
	elems := make([]resp.Value, len(args))
	for i, a := range args {
		elems[i] = resp.BulkString(a)
	}
	w.staging.B = w.encoder.Encode(w.staging.B, resp.Array(elems...))

	if _, err := w.buf.Write(w.staging.B); err != nil {
		return err
	}
	switch w.policy {
	case FsyncAlways:
		return w.flushAndSync()
	case FsyncNo:
		return w.buf.Flush()
	}
	return nil
}

func (w *Writer) flushAndSync() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// RunFlushTicker starts the everysec background flush goroutine on g,
// dispatched through the bounded ants pool the way the teacher's engine
// bounds its own background work. No-op unless policy is FsyncEverySec.
func (w *Writer) RunFlushTicker(ctx context.Context, g *errgroup.Group) {
	if w.policy != FsyncEverySec {
		return
	}
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				done := make(chan struct{})
				err := w.pool.Submit(func() {
					defer close(done)
					w.mu.Lock()
					defer w.mu.Unlock()
					if err := w.flushAndSync(); err != nil {
						w.log.Errorw("aof flush failed", "error", err)
					}
				})
				if err != nil {
					w.log.Errorw("aof flush dispatch failed", "error", err)
					close(done)
				}
				<-done
			}
		}
	})
}

// Close flushes any buffered data and releases resources.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.buf.Flush()
	w.pooledBB.Put(w.staging)
	w.pool.Release()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}
