package world

import (
	"context"
	"errors"
)

var (
	ErrNoSnapshotSink       = errors.New("snapshot sink not configured")
	ErrSnapshotBackpressure = errors.New("snapshot sink backpressure")
)

// snapshotRequest is served by the world loop on its next block tick, so the
// exported state always sits on a block boundary.
type snapshotRequest struct {
	done chan snapshotResult
}

type snapshotResult struct {
	height uint64
	err    error
}

// RequestSnapshot asks the running world loop to hand a snapshot to the sink
// and returns the height it was taken at. Safe from any goroutine.
func (w *World) RequestSnapshot(ctx context.Context) (uint64, error) {
	req := snapshotRequest{done: make(chan snapshotResult, 1)}
	select {
	case w.admin <- req:
	case <-w.stop:
		return 0, ErrStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case res := <-req.done:
		return res.height, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (w *World) serveSnapshotRequests(reqs []snapshotRequest) {
	if len(reqs) == 0 {
		return
	}
	res := snapshotResult{height: w.state.Height}
	switch {
	case w.snapshotSink == nil:
		res.err = ErrNoSnapshotSink
	default:
		select {
		case w.snapshotSink <- w.ExportSnapshot():
		default:
			res.err = ErrSnapshotBackpressure
		}
	}
	for _, r := range reqs {
		r.done <- res // buffered; one send per request
	}
}
