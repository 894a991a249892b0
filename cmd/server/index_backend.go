package main

import (
	"path/filepath"

	"galax.network/internal/persistence/indexdb"
	"galax.network/internal/persistence/snapshot"
	"galax.network/internal/sim/world"
)

type snapshotRecorder interface {
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
}

func openRuntimeIndex(worldDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}
	return indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
}

// The helpers below keep a nil *SQLiteIndex from becoming a non-nil interface.

func indexBlockSink(idx *indexdb.SQLiteIndex) world.BlockLogger {
	if idx == nil {
		return nil
	}
	return idx
}

func indexEventSink(idx *indexdb.SQLiteIndex) world.EventLogger {
	if idx == nil {
		return nil
	}
	return idx
}

func indexSnapshotSink(idx *indexdb.SQLiteIndex) snapshotRecorder {
	if idx == nil {
		return nil
	}
	return idx
}

type multiBlockLogger struct {
	a world.BlockLogger
	b world.BlockLogger
}

func (m multiBlockLogger) WriteBlock(entry world.BlockLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteBlock(entry)
	}
	if m.b != nil {
		_ = m.b.WriteBlock(entry)
	}
	return nil
}

type multiEventLogger struct {
	a world.EventLogger
	b world.EventLogger
}

func (m multiEventLogger) WriteEvent(entry world.EventLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteEvent(entry)
	}
	if m.b != nil {
		_ = m.b.WriteEvent(entry)
	}
	return nil
}
