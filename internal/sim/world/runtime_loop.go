package world

import (
	"context"
	"errors"
	"time"

	"galax.network/internal/protocol"
)

var (
	ErrInboxFull = errors.New("world inbox full")
	ErrStopped   = errors.New("world stopped")
)

// BlockResult is the outcome of one applied block.
type BlockResult struct {
	Height   uint64
	Digest   string
	Receipts []Receipt
	Events   []Event
}

func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(w.cfg.BlockMs) * time.Millisecond)
	defer ticker.Stop()

	var pending []txEnvelope
	var pendingAdmin []snapshotRequest

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case env := <-w.inbox:
			pending = append(pending, env)
		case req := <-w.admin:
			pendingAdmin = append(pendingAdmin, req)
		case <-ticker.C:
			if len(pending) > 0 {
				w.step(pending)
			}
			w.serveSnapshotRequests(pendingAdmin)
			pending = pending[:0]
			pendingAdmin = pendingAdmin[:0]
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// Enqueue hands tx to the world loop without blocking. The receipt is sent on
// resp (if non-nil) after the block containing tx is applied; resp should be
// buffered since delivery never blocks the loop.
func (w *World) Enqueue(tx Tx, resp chan<- Receipt) error {
	select {
	case <-w.stop:
		return ErrStopped
	default:
	}
	select {
	case w.inbox <- txEnvelope{Tx: tx, Resp: resp}:
		return nil
	default:
		return ErrInboxFull
	}
}

// Submit enqueues tx and waits for its receipt.
func (w *World) Submit(ctx context.Context, tx Tx) (Receipt, error) {
	resp := make(chan Receipt, 1)
	if err := w.Enqueue(tx, resp); err != nil {
		return Receipt{}, err
	}
	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	case <-w.stop:
		return Receipt{}, ErrStopped
	}
}

func (w *World) step(envs []txEnvelope) {
	txs := make([]Tx, len(envs))
	for i, env := range envs {
		txs[i] = env.Tx
	}
	res := w.ApplyBlock(txs)
	for i, env := range envs {
		if env.Resp == nil {
			continue
		}
		select {
		case env.Resp <- res.Receipts[i]:
		default:
			// Caller is not listening; don't block the loop.
		}
	}
}

// ApplyBlock applies txs in order as the next block. It is the single entry
// point for state transitions: the runtime loop, replay and tests all use it.
func (w *World) ApplyBlock(txs []Tx) BlockResult {
	start := time.Now()
	height := w.state.Height + 1

	receipts := make([]Receipt, 0, len(txs))
	var events []Event
	for i, tx := range txs {
		res, evs, err := w.engine.Apply(w.state, tx, height)
		receipts = append(receipts, Receipt{TxID: tx.ID, Height: height, Index: i, Err: err, Result: res})
		events = append(events, evs...)
	}
	w.state.Height = height
	digest := w.stateDigest()

	codes := make([]string, len(receipts))
	for i, r := range receipts {
		codes[i] = r.Code()
	}
	if w.blockLogger != nil {
		msgs := make([]protocol.TxMsg, len(txs))
		for i, tx := range txs {
			msgs[i] = tx.Msg()
		}
		entry := BlockLogEntry{WorldID: w.cfg.ID, Height: height, Txs: msgs, Codes: codes, Digest: digest}
		if err := w.blockLogger.WriteBlock(entry); err != nil {
			w.log.Error().Err(err).Uint64("height", height).Msg("block log write failed")
		}
	}
	wire := make([]protocol.Event, len(events))
	for i, ev := range events {
		wire[i] = ev.Wire()
		if w.eventLogger != nil {
			if err := w.eventLogger.WriteEvent(EventLogEntry{WorldID: w.cfg.ID, Height: height, Event: wire[i]}); err != nil {
				w.log.Error().Err(err).Uint64("height", height).Str("event", ev.Type).Msg("event log write failed")
			}
		}
	}

	w.publish(digest)
	w.notify(BlockNotice{Height: height, Digest: digest, Events: events, Wire: wire, Receipts: receipts})
	w.maybeSnapshot(height)

	step := time.Since(start)
	w.recordMetrics(height, receipts, step)
	if w.observer != nil {
		w.observer.ObserveBlock(BlockStats{
			Height:     height,
			TxCount:    len(txs),
			Codes:      codes,
			Step:       step,
			InboxDepth: len(w.inbox),
		})
	}
	return BlockResult{Height: height, Digest: digest, Receipts: receipts, Events: events}
}

func (w *World) maybeSnapshot(height uint64) {
	if w.snapshotSink == nil || w.cfg.SnapshotEveryBlocks <= 0 {
		return
	}
	if height%uint64(w.cfg.SnapshotEveryBlocks) != 0 {
		return
	}
	select {
	case w.snapshotSink <- w.ExportSnapshot():
	default:
		w.log.Warn().Uint64("height", height).Msg("snapshot sink backed up; dropping snapshot")
	}
}
