package world

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"galax.network/internal/persistence/snapshot"
	"galax.network/internal/protocol"
	"galax.network/internal/sim/catalogs"
)

type txEnvelope struct {
	Tx   Tx
	Resp chan<- Receipt
}

// World is a single-writer authoritative ledger.
// State is only touched from the world loop goroutine (or by ApplyBlock
// callers that own the World exclusively, such as tests and replay).
type World struct {
	cfg      WorldConfig
	engine   *Engine
	catalogs *catalogs.Catalogs
	state    *State

	inbox chan txEnvelope
	admin chan snapshotRequest
	stop  chan struct{}

	stopOnce sync.Once

	// Optional sinks (may be nil). Implemented in internal/persistence/*.
	blockLogger BlockLogger
	eventLogger EventLogger
	observer    BlockObserver

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	subsMu  sync.Mutex
	subs    map[uint64]chan BlockNotice
	nextSub uint64

	view    atomic.Pointer[View]
	metrics atomic.Pointer[WorldMetrics]

	log zerolog.Logger
}

type BlockLogger interface {
	WriteBlock(entry BlockLogEntry) error
}

type EventLogger interface {
	WriteEvent(entry EventLogEntry) error
}

// BlockObserver receives per-block runtime measurements (metrics exporters).
type BlockObserver interface {
	ObserveBlock(stats BlockStats)
}

// BlockLogEntry is one applied block: enough to replay it and check the result.
type BlockLogEntry struct {
	WorldID string           `json:"world_id"`
	Height  uint64           `json:"height"`
	Txs     []protocol.TxMsg `json:"txs"`
	Codes   []string         `json:"codes"`
	Digest  string           `json:"digest"`
}

type EventLogEntry struct {
	WorldID string         `json:"world_id"`
	Height  uint64         `json:"height"`
	Event   protocol.Event `json:"event"`
}

const inboxSize = 4096

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	cfg.applyDefaults()
	eng, err := NewEngine(cfg, cats)
	if err != nil {
		return nil, err
	}
	w := &World{
		cfg:      cfg,
		engine:   eng,
		catalogs: cats,
		state:    NewState(),
		inbox:    make(chan txEnvelope, inboxSize),
		admin:    make(chan snapshotRequest, 16),
		stop:     make(chan struct{}),
		subs:     map[uint64]chan BlockNotice{},
		log:      zerolog.Nop(),
	}
	eng.InitLedger(w.state)
	w.publish(w.stateDigest())
	return w, nil
}

func (w *World) SetBlockLogger(l BlockLogger)                  { w.blockLogger = l }
func (w *World) SetEventLogger(l EventLogger)                  { w.eventLogger = l }
func (w *World) SetBlockObserver(o BlockObserver)              { w.observer = o }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }
func (w *World) SetLogger(l zerolog.Logger)                    { w.log = l.With().Str("component", "world").Logger() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) Engine() *Engine { return w.engine }

func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }

// Height returns the last applied block height.
func (w *World) Height() uint64 {
	if v := w.view.Load(); v != nil {
		return v.Height
	}
	return 0
}

// State exposes the live ledger to exclusive owners (tests, replay).
// It must not be used while Run is active.
func (w *World) State() *State { return w.state }
