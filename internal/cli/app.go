package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/quadjournal/quad/internal/config"
	"github.com/quadjournal/quad/internal/events"
	"github.com/quadjournal/quad/internal/journal"
	"github.com/quadjournal/quad/internal/kv"
	"github.com/quadjournal/quad/internal/notify"
	"github.com/quadjournal/quad/internal/reminder"
	"github.com/quadjournal/quad/internal/settings"
	"github.com/quadjournal/quad/internal/store"
)

// app bundles the wired-up collaborators every command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	kv       kv.Store
	events   *events.MemoryPublisher
	store    *store.Store
	journal  *journal.Store
	settings *settings.Manager
	engine   *reminder.Engine
}

// openApp loads config, opens the database and loads all stores.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	kvs, err := kv.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pub := events.NewMemoryPublisher()

	st := store.New(kvs, pub, logger)
	if err := st.Load(); err != nil {
		kvs.Close()
		return nil, err
	}
	jn := journal.New(kvs, pub, logger)
	if err := jn.Load(); err != nil {
		kvs.Close()
		return nil, err
	}
	sm := settings.NewManager(kvs, pub, logger)
	if err := sm.Load(); err != nil {
		kvs.Close()
		return nil, err
	}

	engine := reminder.NewEngine(notify.Multi{
		notify.NewLogNotifier(logger),
		notify.NewPublisherNotifier(pub),
	}, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		kv:       kvs,
		events:   pub,
		store:    st,
		journal:  jn,
		settings: sm,
		engine:   engine,
	}, nil
}

func (a *app) Close() {
	a.events.Close()
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

// loadConfig resolves the config file, letting the --config flag and
// QUAD_* environment variables override the file on disk.
func loadConfig() (*config.Config, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v := viper.GetString("data_dir"); v != "" {
		cfg.DataDir = v
	}
	if v := viper.GetString("db_path"); v != "" {
		cfg.DBPath = v
	}
	if v := viper.GetString("listen_addr"); v != "" {
		cfg.ListenAddr = v
	}
	if v := viper.GetDuration("coarse_interval"); v > 0 {
		cfg.CoarseInterval = v
	}
	if v := viper.GetDuration("fine_interval"); v > 0 {
		cfg.FineInterval = v
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.LogLevel = v
	}
	if v := viper.GetString("log_format"); v != "" {
		cfg.LogFormat = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
