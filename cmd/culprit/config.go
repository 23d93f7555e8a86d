package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/culprit/internal/model"
)

const (
	defaultAPIAddr      = "127.0.0.1:3000"
	defaultQueryTimeout = 30 * time.Second
	defaultSnapshotKeep = 10
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	DBPath         string              `mapstructure:"db-path"`
	ProfileDir     string              `mapstructure:"profile-dir"`
	BuildProfile   bool                `mapstructure:"build-profile"`
	LabelsFile     string              `mapstructure:"labels-file"`
	Actors         int                 `mapstructure:"actors"`
	Workers        int                 `mapstructure:"workers"`
	QueryTimeout   time.Duration       `mapstructure:"query-timeout"`
	APIAddr        string              `mapstructure:"api-addr"`
	Snapshots      bool                `mapstructure:"snapshots"`
	SnapshotDir    string              `mapstructure:"snapshot-dir"`
	SnapshotKeep   int                 `mapstructure:"snapshot-keep"`
	Seed           uint64              `mapstructure:"seed"`
	LogFile        string              `mapstructure:"log-file"`
	ObservedFields map[string][]string `mapstructure:"observed-fields"`
	ConfigPath     string              `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	dataDir := filepath.Join(home, ".local", "share", "culprit")

	v := viper.New()
	v.SetEnvPrefix("CULPRIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("db-path", filepath.Join(dataDir, "culprit.duckdb"))
	v.SetDefault("profile-dir", filepath.Join(dataDir, "profile"))
	v.SetDefault("build-profile", false)
	v.SetDefault("labels-file", "")
	v.SetDefault("actors", model.DefaultActorCount)
	v.SetDefault("workers", model.DefaultWorkers)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("snapshots", true)
	v.SetDefault("snapshot-dir", filepath.Join(dataDir, "snapshots"))
	v.SetDefault("snapshot-keep", defaultSnapshotKeep)
	v.SetDefault("seed", 0)
	v.SetDefault("log-file", "")
	v.SetDefault("observed-fields", model.DefaultObservedFields())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultConfigPath := filepath.Join(home, ".config", "culprit", "config.yml")
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.Actors < 1 {
		return cfg, fmt.Errorf("invalid actors: %d", cfg.Actors)
	}
	if cfg.Workers < 1 {
		return cfg, fmt.Errorf("invalid workers: %d", cfg.Workers)
	}
	if len(cfg.ObservedFields) == 0 {
		cfg.ObservedFields = model.DefaultObservedFields()
	}

	// Expand ~ in paths
	for _, p := range []*string{&cfg.DBPath, &cfg.ProfileDir, &cfg.LabelsFile, &cfg.SnapshotDir, &cfg.LogFile} {
		if strings.HasPrefix(*p, "~/") {
			*p = filepath.Join(home, (*p)[2:])
		}
	}

	return cfg, nil
}

// parseCategories reads the -categories flag: a comma separated list of
// category names, or empty for all.
func parseCategories(s string) ([]model.Category, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []model.Category
	seen := make(map[model.Category]bool)
	for _, part := range strings.Split(s, ",") {
		c, err := model.ParseCategory(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}
