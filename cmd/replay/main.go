package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"galax.network/internal/logging"
	persistlog "galax.network/internal/persistence/log"
	"galax.network/internal/persistence/snapshot"
	"galax.network/internal/sim/catalogs"
	"galax.network/internal/sim/tuning"
	"galax.network/internal/sim/world"
)

func main() {
	var (
		worldDir  = flag.String("world_dir", "", "world data dir containing blocks/ (and snapshots/)")
		snapPath  = flag.String("snapshot", "", "snapshot to start from (default: genesis)")
		configDir = flag.String("configs", "./configs", "config directory")
		toHeight  = flag.Uint64("to", 0, "stop after this height (0 = end of log)")
		logLevel  = flag.String("log_level", "info", "log level")
	)
	flag.Parse()
	logger := logging.New("galax-replay", logging.Options{Format: "console", Level: *logLevel})

	if *worldDir == "" {
		fmt.Fprintln(os.Stderr, "missing -world_dir")
		os.Exit(2)
	}

	w, err := openWorld(*configDir, *snapPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open world")
	}
	stats, err := replay(w, *worldDir, *toHeight, logger)
	if err != nil {
		logger.Fatal().Err(err).Uint64("height", w.Height()).Msg("replay failed")
	}
	logger.Info().
		Str("world", w.ID()).
		Uint64("from", stats.From).
		Uint64("to", stats.To).
		Int("blocks", stats.Blocks).
		Int("txs", stats.Txs).
		Str("digest", w.View().Digest).
		Msg("replay ok")
}

func openWorld(configDir, snapPath string) (*world.World, error) {
	cats, err := catalogs.Load(configDir)
	if err != nil {
		return nil, err
	}
	tune, err := tuning.Load(filepath.Join(configDir, "tuning.yaml"))
	if err != nil {
		return nil, err
	}
	var snap snapshot.SnapshotV1
	if snapPath != "" {
		if snap, err = snapshot.ReadSnapshot(snapPath); err != nil {
			return nil, err
		}
		tune.WorldID = snap.Header.WorldID
	}
	cfg, err := world.ConfigFromTuning(tune)
	if err != nil {
		return nil, err
	}
	w, err := world.New(cfg, cats)
	if err != nil {
		return nil, err
	}
	if snapPath != "" {
		if err := w.ImportSnapshot(snap); err != nil {
			return nil, err
		}
	}
	return w, nil
}

type replayStats struct {
	From, To uint64
	Blocks   int
	Txs      int
}

var errStop = errors.New("stop")

// replay re-applies every logged block after w's height and checks each
// block's result codes and state digest against the log.
func replay(w *world.World, worldDir string, to uint64, logger zerolog.Logger) (replayStats, error) {
	stats := replayStats{From: w.Height(), To: w.Height()}
	err := persistlog.ReadBlocks(worldDir, w.Height(), func(e world.BlockLogEntry) error {
		if to != 0 && e.Height > to {
			return errStop
		}
		if e.WorldID != w.ID() {
			return fmt.Errorf("block %d: world id %q, replaying %q", e.Height, e.WorldID, w.ID())
		}
		txs := make([]world.Tx, len(e.Txs))
		for i, m := range e.Txs {
			tx, err := world.TxFromMsg(m)
			if err != nil {
				return fmt.Errorf("block %d tx %d: %w", e.Height, i, err)
			}
			txs[i] = tx
		}
		res := w.ApplyBlock(txs)
		if res.Height != e.Height {
			return fmt.Errorf("applied height %d, log has %d", res.Height, e.Height)
		}
		if len(e.Codes) != len(res.Receipts) {
			return fmt.Errorf("block %d: %d codes logged for %d txs", e.Height, len(e.Codes), len(res.Receipts))
		}
		for i, r := range res.Receipts {
			if r.Code() != e.Codes[i] {
				return fmt.Errorf("block %d tx %d: code %q, log has %q", e.Height, i, r.Code(), e.Codes[i])
			}
		}
		if res.Digest != e.Digest {
			return fmt.Errorf("block %d: digest %s, log has %s", e.Height, res.Digest, e.Digest)
		}
		stats.To = e.Height
		stats.Blocks++
		stats.Txs += len(txs)
		logger.Debug().Uint64("height", e.Height).Int("txs", len(txs)).Msg("block verified")
		return nil
	})
	if errors.Is(err, errStop) {
		err = nil
	}
	return stats, err
}
