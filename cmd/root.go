package cmd

import (
	"fmt"
	"os"

	"github.com/probfoundry/qtrail/internal/config"
	"github.com/probfoundry/qtrail/internal/engine"
	"github.com/probfoundry/qtrail/internal/store"
	"github.com/probfoundry/qtrail/internal/trail"

	"github.com/spf13/cobra"
)

var (
	flagDBPath       string
	flagCollectorURL string
)

var rootCmd = &cobra.Command{
	Use:   "qtrail",
	Short: "Session trail for analytical database queries",
	Long: "Inspect, export, and upload the query-session log an analytical\n" +
		"database keeps alongside its data: every recorded query, which ones\n" +
		"never finished, and which sessions look like they crashed.",
	RunE: runStatus,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDBPath, "db", "d", "", "Trail database path (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagCollectorURL, "collector", "", "Collection endpoint URL (default from config)")
}

// databasePath resolves the trail database location: flag first, then
// config, then the default data dir.
func databasePath() string {
	if flagDBPath != "" {
		return flagDBPath
	}
	cfg, _ := config.Load()
	if cfg.General.DatabasePath != "" {
		return cfg.General.DatabasePath
	}
	return config.DefaultDatabasePath()
}

func collectorURL() string {
	if flagCollectorURL != "" {
		return flagCollectorURL
	}
	cfg, _ := config.Load()
	return cfg.Collector.URL
}

// openLog opens the session log read-side for inspection commands. These
// never begin a new session.
func openLog() (*store.Log, error) {
	path := databasePath()
	log, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trail database %s: %w", path, err)
	}
	return log, nil
}

// attachTracer opens the engine and attaches a session tracer to it, the
// way a host application would at startup. This begins a new session.
func attachTracer(opts trail.Options) (*engine.Engine, *store.Log, *trail.Tracer, error) {
	eng, err := engine.Open(databasePath())
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := store.Attach(eng.DB())
	if err != nil {
		_ = eng.Close()
		return nil, nil, nil, err
	}

	tracer, err := trail.New(log, eng, opts)
	if err != nil {
		_ = eng.Close()
		return nil, nil, nil, err
	}
	return eng, log, tracer, nil
}
