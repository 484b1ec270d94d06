package aof

import (
	"os"

	"go.uber.org/zap"

	"github.com/lanterndb/lantern/pkg/resp"
)

// Replayer re-enters the dispatcher for each command recorded in the AOF
// file. It has no dependency on pkg/command to keep the dependency graph
// one-directional; callers supply the apply function.
type Replayer struct {
	log *zap.SugaredLogger
}

// NewReplayer returns a Replayer that logs through log.
func NewReplayer(log *zap.SugaredLogger) *Replayer {
	return &Replayer{log: log}
}

// Apply is called once per replayed command, in file order, with
// aof_suppress implied (callers must route this through their dispatcher
// with AOFSuppress set so replay never re-appends to the file it is
// replaying, per spec §4.4).
type Apply func(args [][]byte)

// Replay reads path from the start and calls apply for every complete RESP
// Array record. A trailing partial record (the tail end of a file whose
// last write was interrupted, e.g. by a crash) is tolerated: everything up
// to the last complete record is applied, and the remainder is discarded
// with a logged warning — grounded on the teacher pack's
// akashmaji946-go-redis AOF replay loop, adapted from its bespoke
// Value.ReadArray to RESP Arrays parsed via pkg/resp.Parser.
func (r *Replayer) Replay(path string, apply Apply) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var p resp.Parser
	offset := 0
	applied := 0
	for offset < len(data) {
		n, v, status, perr := p.Parse(data[offset:])
		if status == resp.StatusIncomplete {
			discarded := len(data) - offset
			r.log.Warnw("aof replay: discarding trailing partial record",
				"offset", offset, "discarded_bytes", discarded, "applied_records", applied)
			break
		}
		if status == resp.StatusInvalid {
			r.log.Warnw("aof replay: discarding corrupt tail",
				"offset", offset, "error", perr, "applied_records", applied)
			break
		}
		args, ok := arrayToArgs(v)
		if !ok {
			r.log.Warnw("aof replay: skipping malformed record (not a bulk-string array)", "offset", offset)
			offset += n
			continue
		}
		apply(args)
		applied++
		offset += n
	}
	r.log.Infow("aof replay complete", "applied_records", applied, "path", path)
	return nil
}

func arrayToArgs(v resp.Value) ([][]byte, bool) {
	if v.Kind != resp.KindArray || v.ArrayNull {
		return nil, false
	}
	args := make([][]byte, len(v.Elems))
	for i, e := range v.Elems {
		if e.Kind != resp.KindBulkString || e.BulkNull {
			return nil, false
		}
		args[i] = e.Bulk
	}
	return args, true
}
