package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"galax.network/internal/logging"
	persistlog "galax.network/internal/persistence/log"
	"galax.network/internal/persistence/snapshot"
	"galax.network/internal/protocol"
	"galax.network/internal/sim/catalogs"
	"galax.network/internal/sim/tuning"
	"galax.network/internal/sim/world"
	"galax.network/internal/transport/ws"
)

// serverConfig is read from the environment first; flags override it.
type serverConfig struct {
	Addr      string `env:"GALAX_ADDR" envDefault:":8080"`
	DataDir   string `env:"GALAX_DATA_DIR" envDefault:"./data"`
	ConfigDir string `env:"GALAX_CONFIG_DIR" envDefault:"./configs"`
	WorldID   string `env:"GALAX_WORLD_ID"`
	DisableDB bool   `env:"GALAX_DISABLE_DB"`

	// Zero keeps the tuning value.
	BlockMs             int `env:"GALAX_BLOCK_MS"`
	SnapshotEveryBlocks int `env:"GALAX_SNAPSHOT_EVERY_BLOCKS"`

	EnableAdmin bool   `env:"GALAX_ENABLE_ADMIN_HTTP" envDefault:"true"`
	LogLevel    string `env:"GALAX_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"GALAX_LOG_FORMAT" envDefault:"json"`
}

func loadConfig(args []string) (serverConfig, error) {
	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "http listen address")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "runtime data directory")
	fs.StringVar(&cfg.ConfigDir, "configs", cfg.ConfigDir, "config directory (tuning.yaml, resources.json)")
	fs.StringVar(&cfg.WorldID, "world", cfg.WorldID, "world id (overrides tuning)")
	fs.BoolVar(&cfg.DisableDB, "disable_db", cfg.DisableDB, "disable the sqlite read-model index")
	fs.IntVar(&cfg.BlockMs, "block_ms", cfg.BlockMs, "block interval in milliseconds (overrides tuning)")
	fs.IntVar(&cfg.SnapshotEveryBlocks, "snapshot_every", cfg.SnapshotEveryBlocks, "snapshot interval in blocks (overrides tuning)")
	fs.BoolVar(&cfg.EnableAdmin, "admin", cfg.EnableAdmin, "serve loopback-only admin endpoints")
	fs.StringVar(&cfg.LogLevel, "log_level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log_format", cfg.LogFormat, "log format: json or console")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}
	logger := logging.New("galax-server", logging.Options{Format: cfg.LogFormat, Level: cfg.LogLevel})

	ctx, cancel := signalContext()
	defer cancel()
	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func loadTuning(cfg serverConfig, logger zerolog.Logger) (tuning.Tuning, error) {
	path := filepath.Join(cfg.ConfigDir, "tuning.yaml")
	tune, err := tuning.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return tune, err
		}
		logger.Warn().Str("path", path).Msg("tuning not found; using defaults")
		tune = tuning.Defaults()
	}
	if cfg.WorldID != "" {
		tune.WorldID = cfg.WorldID
	}
	if cfg.BlockMs > 0 {
		tune.BlockMs = cfg.BlockMs
	}
	if cfg.SnapshotEveryBlocks > 0 {
		tune.SnapshotEveryBlocks = cfg.SnapshotEveryBlocks
	}
	return tune, tune.Validate()
}

// openWorld builds the world and resumes it from the newest snapshot in
// snapDir, if any.
func openWorld(wcfg world.WorldConfig, cats *catalogs.Catalogs, snapDir string, logger zerolog.Logger) (*world.World, error) {
	w, err := world.New(wcfg, cats)
	if err != nil {
		return nil, err
	}
	w.SetLogger(logger)

	path, height, err := snapshot.Latest(snapDir)
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return w, nil
	}
	if err != nil {
		return nil, err
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return nil, err
	}
	logger.Info().Str("snapshot", filepath.Base(path)).Uint64("height", height).Msg("resumed from snapshot")
	return w, nil
}

func run(ctx context.Context, cfg serverConfig, logger zerolog.Logger) error {
	tune, err := loadTuning(cfg, logger)
	if err != nil {
		return err
	}
	cats, err := catalogs.Load(cfg.ConfigDir)
	if err != nil {
		return err
	}
	wcfg, err := world.ConfigFromTuning(tune)
	if err != nil {
		return err
	}

	worldDir := filepath.Join(cfg.DataDir, "worlds", wcfg.ID)
	snapDir := filepath.Join(worldDir, "snapshots")
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		return err
	}

	w, err := openWorld(wcfg, cats, snapDir, logger)
	if err != nil {
		return err
	}
	log := logger.With().Str("world", w.ID()).Logger()

	// Optional read-model index (does not affect ledger determinism).
	idx, err := openRuntimeIndex(worldDir, cfg.DisableDB)
	if err != nil {
		return err
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			log.Warn().Err(err).Msg("index: upsert catalogs")
		}
	}

	blockLog := persistlog.NewBlockLogger(worldDir)
	eventLog := persistlog.NewEventLogger(worldDir)
	defer blockLog.Close()
	defer eventLog.Close()
	w.SetBlockLogger(multiBlockLogger{a: blockLog, b: indexBlockSink(idx)})
	w.SetEventLogger(multiEventLogger{a: eventLog, b: indexEventSink(idx)})

	m := newMetrics(w.ID(), idx)
	w.SetBlockObserver(m)

	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go writeSnapshots(ctx, snapDir, snapCh, indexSnapshotSink(idx), log)

	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("world stopped")
		}
	}()

	wsSrv := ws.NewServer(w, ws.Config{
		TxPerSecond: tune.RateLimits.TxPerSecond,
		TxBurst:     tune.RateLimits.TxBurst,
		Catalogs: protocol.CatalogDigests{
			ResourcesDigest: cats.Resources.Digest,
			TuningDigest:    tune.Digest(),
		},
	}, logger)

	a := &api{world: w, metrics: m, ws: wsSrv.Handler(), admin: cfg.EnableAdmin, log: log}
	if idx != nil {
		a.index = idx
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	log.Info().Str("addr", cfg.Addr).Uint64("height", w.Height()).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeSnapshots(ctx context.Context, dir string, ch <-chan snapshot.SnapshotV1, idx snapshotRecorder, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			path := snapshot.PathFor(dir, snap.Header.Height)
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				log.Error().Err(err).Uint64("height", snap.Header.Height).Msg("snapshot write")
				continue
			}
			log.Info().Str("path", path).Uint64("height", snap.Header.Height).Msg("snapshot written")
			if idx != nil {
				idx.RecordSnapshot(path, snap)
			}
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
