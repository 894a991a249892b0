package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"galax.network/internal/persistence/snapshot"
	"galax.network/internal/protocol"
	"galax.network/internal/sim/catalogs"
	"galax.network/internal/sim/tuning"
	"galax.network/internal/sim/world"
)

// SQLiteIndex is a read-model of the ledger. It is fed from the block and
// event streams and never influences state transitions; JSONL logs and
// snapshots remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB
	// rdb serves queries so readers never wait on the writer's open batch.
	rdb *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropBlock    atomic.Uint64
	dropEvent    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqBlock reqKind = iota + 1
	reqEvent
	reqSnapshot
)

type req struct {
	kind reqKind

	block    world.BlockLogEntry
	event    world.EventLogEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Path string
	Snap snapshot.SnapshotV1
}

// Stats reports queue health for metrics.
type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropBlockTotal    uint64 `json:"drop_block_total"`
	DropEventTotal    uint64 `json:"drop_event_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	rdb, err := sql.Open("sqlite", path)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	rdb.SetMaxOpenConns(4)

	s := &SQLiteIndex{
		db:  db,
		rdb: rdb,
		ch:  make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS blocks (
			height INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			tx_count INTEGER NOT NULL,
			accepted INTEGER NOT NULL,
			rejected INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS txs (
			height INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			tx_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			sender TEXT NOT NULL,
			code TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (height, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_txs_sender_height ON txs(sender, height);`,
		`CREATE INDEX IF NOT EXISTS idx_txs_code ON txs(code);`,
		`CREATE TABLE IF NOT EXISTS events (
			height INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			territory_id INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (height, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_territory_height ON events(territory_id, height);`,
		`CREATE TABLE IF NOT EXISTS territories (
			id INTEGER PRIMARY KEY,
			address TEXT NOT NULL UNIQUE,
			owner TEXT NOT NULL,
			name TEXT NOT NULL,
			metadata_uri TEXT NOT NULL DEFAULT '',
			declared_value TEXT NOT NULL DEFAULT '0',
			created_block INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS businesses (
			territory_id INTEGER NOT NULL,
			business_id INTEGER NOT NULL,
			address TEXT NOT NULL,
			name TEXT NOT NULL,
			type INTEGER NOT NULL,
			owner TEXT NOT NULL,
			created_block INTEGER NOT NULL,
			PRIMARY KEY (territory_id, business_id)
		);`,
		`CREATE TABLE IF NOT EXISTS memberships (
			participant TEXT PRIMARY KEY,
			territory_id INTEGER NOT NULL,
			since_block INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_memberships_territory ON memberships(territory_id);`,
		`CREATE TABLE IF NOT EXISTS productions (
			height INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			territory_id INTEGER NOT NULL,
			participant TEXT NOT NULL,
			resource_id INTEGER NOT NULL,
			amount TEXT NOT NULL,
			reward TEXT NOT NULL,
			PRIMARY KEY (height, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_productions_participant ON productions(participant, height);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			height INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			participants INTEGER NOT NULL,
			territories INTEGER NOT NULL,
			balances INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		_ = s.rdb.Close()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropBlockTotal:    s.dropBlock.Load(),
		DropEventTotal:    s.dropEvent.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

func (s *SQLiteIndex) WriteBlock(entry world.BlockLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqBlock, block: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropBlock.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteEvent(entry world.EventLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqEvent, event: entry}:
	default:
		s.dropEvent.Add(1)
	}
	return nil
}

// RecordSnapshot indexes snapshot metadata and refreshes the territory,
// business and membership tables from the full image.
func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: snapshotRow{Path: path, Snap: snap}}:
	default:
		s.dropSnapshot.Add(1)
	}
}

func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if cats != nil {
		if b, _ := json.Marshal(cats.Resources.Defs); len(b) > 0 {
			rows = append(rows, kv{name: "resources", digest: cats.Resources.Digest, json: b})
		}
	}
	// Tuning: store the values we actually apply (canonical JSON).
	if b, err := json.Marshal(tune); err == nil {
		rows = append(rows, kv{name: "tuning", digest: tune.Digest(), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastEventHeight uint64
		eventSeq        int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		var (
			n   int
			err error
		)
		switch r.kind {
		case reqBlock:
			n, err = writeBlock(tx, r.block)
		case reqEvent:
			if r.event.Height != lastEventHeight {
				lastEventHeight = r.event.Height
				eventSeq = 0
			}
			n, err = writeEvent(tx, r.event, eventSeq)
			eventSeq++
		case reqSnapshot:
			n, err = writeSnapshot(tx, r.snapshot)
		}
		if err != nil {
			rollback()
			continue
		}
		opCount += n
		flushIfNeeded()
	}

	commit()
}

func writeBlock(tx *sql.Tx, b world.BlockLogEntry) (int, error) {
	accepted := 0
	for _, c := range b.Codes {
		if c == "" {
			accepted++
		}
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO blocks(height,digest,tx_count,accepted,rejected) VALUES(?,?,?,?,?)`,
		int64(b.Height), b.Digest, len(b.Txs), accepted, len(b.Txs)-accepted); err != nil {
		return 0, err
	}
	n := 1
	for i, m := range b.Txs {
		code := ""
		if i < len(b.Codes) {
			code = b.Codes[i]
		}
		raw, _ := json.Marshal(m)
		if _, err := tx.Exec(`INSERT OR REPLACE INTO txs(height,idx,tx_id,kind,sender,code,raw_json) VALUES(?,?,?,?,?,?,?)`,
			int64(b.Height), i, m.TxID, m.Kind, m.Sender, code, string(raw)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func writeEvent(tx *sql.Tx, e world.EventLogEntry, seq int) (int, error) {
	ev := e.Event
	typ := evString(ev, "type")
	tid := evUint(ev, "territory_id")
	raw, _ := json.Marshal(ev)
	if _, err := tx.Exec(`INSERT OR REPLACE INTO events(height,seq,type,territory_id,raw_json) VALUES(?,?,?,?,?)`,
		int64(e.Height), seq, typ, int64(tid), string(raw)); err != nil {
		return 0, err
	}

	var err error
	switch typ {
	case world.EventTerritoryCreated:
		_, err = tx.Exec(`INSERT OR IGNORE INTO territories(id,address,owner,name,created_block) VALUES(?,?,?,?,?)`,
			int64(tid), evString(ev, "address"), evString(ev, "owner"), evString(ev, "name"), int64(e.Height))
	case world.EventBusinessCreated:
		_, err = tx.Exec(`INSERT OR REPLACE INTO businesses(territory_id,business_id,address,name,type,owner,created_block) VALUES(?,?,?,?,?,?,?)`,
			int64(tid), int64(evUint(ev, "business_id")), evString(ev, "address"), evString(ev, "name"),
			int64(evUint(ev, "business_type")), evString(ev, "owner"), int64(e.Height))
	case world.EventParticipantJoined:
		_, err = tx.Exec(`INSERT OR REPLACE INTO memberships(participant,territory_id,since_block) VALUES(?,?,?)`,
			evString(ev, "participant"), int64(tid), int64(e.Height))
	case world.EventResourceProduced:
		_, err = tx.Exec(`INSERT OR REPLACE INTO productions(height,seq,territory_id,participant,resource_id,amount,reward) VALUES(?,?,?,?,?,?,?)`,
			int64(e.Height), seq, int64(tid), evString(ev, "participant"), int64(evUint(ev, "resource_id")),
			evString(ev, "amount"), evString(ev, "reward"))
	default:
		return 1, nil
	}
	if err != nil {
		return 1, err
	}
	return 2, nil
}

func writeSnapshot(tx *sql.Tx, r snapshotRow) (int, error) {
	snap := r.Snap
	if _, err := tx.Exec(`INSERT OR REPLACE INTO snapshots(height,path,digest,participants,territories,balances) VALUES(?,?,?,?,?,?)`,
		int64(snap.Header.Height), r.Path, snap.Header.Digest, len(snap.Participants), len(snap.Territories), len(snap.Balances)); err != nil {
		return 0, err
	}
	n := 1
	for _, t := range snap.Territories {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO territories(id,address,owner,name,metadata_uri,declared_value,created_block) VALUES(?,?,?,?,?,?,?)`,
			int64(t.ID), t.Address, t.Owner, t.Name, t.MetadataURI, t.DeclaredValue, int64(t.CreatedBlock)); err != nil {
			return n, err
		}
		n++
		for _, b := range t.Businesses {
			if _, err := tx.Exec(`INSERT OR REPLACE INTO businesses(territory_id,business_id,address,name,type,owner,created_block) VALUES(?,?,?,?,?,?,?)`,
				int64(t.ID), int64(b.ID), b.Address, b.Name, int64(b.Type), b.Owner, int64(b.CreatedBlock)); err != nil {
				return n, err
			}
			n++
		}
	}
	for _, p := range snap.Participants {
		if p.Territory == 0 {
			continue
		}
		// Keep since_block from the event stream when it is already known.
		if _, err := tx.Exec(`INSERT INTO memberships(participant,territory_id,since_block) VALUES(?,?,?)
			ON CONFLICT(participant) DO UPDATE SET territory_id=excluded.territory_id
			WHERE memberships.territory_id <> excluded.territory_id`,
			p.Address, int64(p.Territory), int64(snap.Header.Height)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func evString(ev protocol.Event, key string) string {
	switch v := ev[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func evUint(ev protocol.Event, key string) uint64 {
	switch v := ev[key].(type) {
	case uint64:
		return v
	case uint32:
		return uint64(v)
	case int:
		return uint64(v)
	case float64:
		return uint64(v)
	case json.Number:
		n, _ := strconv.ParseUint(v.String(), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseUint(v, 10, 64)
		return n
	default:
		return 0
	}
}
