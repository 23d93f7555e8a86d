package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tinytelemetry/culprit/internal/backup"
	"github.com/tinytelemetry/culprit/internal/duckdb"
	"github.com/tinytelemetry/culprit/internal/eventlog"
	"github.com/tinytelemetry/culprit/internal/httpserver"
	"github.com/tinytelemetry/culprit/internal/labels"
	"github.com/tinytelemetry/culprit/internal/model"
	"github.com/tinytelemetry/culprit/internal/pipeline"
	"github.com/tinytelemetry/culprit/internal/predict"
	"github.com/tinytelemetry/culprit/internal/profile"
	"github.com/tinytelemetry/culprit/internal/tui"
	"github.com/tinytelemetry/culprit/internal/vote"
)

func openStore(cfg appConfig) (*duckdb.Store, error) {
	store, err := duckdb.NewStore(cfg.DBPath, duckdb.Options{
		QueryTimeout: cfg.QueryTimeout,
		Actors:       cfg.Actors,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	return store, nil
}

func runTrain(cfg appConfig, root string, categories []model.Category) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	manifest, err := labels.Load(cfg.LabelsFile)
	if err != nil {
		return err
	}

	snapshots, err := backup.NewManager(store, backup.Config{
		Enabled:  cfg.Snapshots && store.DBPath() != "",
		Dir:      cfg.SnapshotDir,
		KeepLast: cfg.SnapshotKeep,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize snapshots: %w", err)
	}

	tr := &pipeline.Trainer{
		Loader:     eventlog.DirLoader{},
		Store:      store,
		Actors:     cfg.Actors,
		Categories: categories,
		Allowlist:  cfg.ObservedFields,
	}
	if snapshots != nil {
		tr.Backup = snapshots
	}
	if cfg.BuildProfile {
		tr.ProfileDir = cfg.ProfileDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := tr.Train(ctx, root, manifest)
	if err != nil {
		return err
	}
	printTrainSummary(os.Stdout, summary, cfg.Actors)
	return nil
}

// newAttributor loads the statistics snapshot and protocol profile used for
// inference. A missing profile leaves the network predictor out.
func newAttributor(ctx context.Context, cfg appConfig, store *duckdb.Store) (*pipeline.Attributor, error) {
	snapshot, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}

	a := &pipeline.Attributor{
		Loader:   eventlog.DirLoader{},
		Stats:    snapshot,
		Voter:    vote.New(cfg.Actors, cfg.Seed),
		Recorder: store,
		Workers:  cfg.Workers,
	}

	p, err := profile.Load(cfg.ProfileDir, cfg.Actors)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("culprit: no protocol profile at %s, network predictor disabled", cfg.ProfileDir)
	case err != nil:
		return nil, err
	default:
		a.Network = predict.NewNetworkPredictor(p, cfg.ObservedFields, cfg.Actors)
	}
	return a, nil
}

func runPredict(cfg appConfig, root string) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newAttributor(ctx, cfg, store)
	if err != nil {
		return err
	}
	verdicts, err := a.Run(ctx, root)
	if err != nil {
		return err
	}
	printVerdicts(os.Stdout, verdicts)
	return nil
}

func runShow(dir string) error {
	tc, err := eventlog.DirLoader{}.Load(context.Background(), dir)
	if err != nil {
		return err
	}
	printInspection(os.Stdout, filepath.Base(dir), pipeline.Inspect(tc))
	return nil
}

func runServe(cfg appConfig) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newAttributor(ctx, cfg, store)
	if err != nil {
		return err
	}

	apiServer := httpserver.NewServer(cfg.APIAddr, store, a)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	defer apiServer.Stop()

	printStartupBanner(os.Stdout, cfg, a.Network != nil)

	<-ctx.Done()
	fmt.Println("\nShutting down...")
	return nil
}

func runBrowse(cfg appConfig) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return tui.Run(store, cfg.Actors, 500, 2*time.Second)
}

func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "culprit", "culprit.log")
}

func configureRuntimeLogger(path string) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stderr)
	if path == "" {
		return func() {}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("culprit: log file: %v", err)
		return func() {}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("culprit: log file: %v", err)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}
}
