package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/probfoundry/qtrail/internal/monitor"

	"github.com/spf13/cobra"
)

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve session log status and events over HTTP",
	Long: "Runs a foreground monitor that polls the session log and serves its\n" +
		"state: /v1/status, /v1/sessions, /v1/sessions/{id}, /v1/events, and a\n" +
		"/v1/stream SSE feed of log activity.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "127.0.0.1:8790", "HTTP listen address")
	serveCmd.Flags().DurationVar(&flagServeInterval, "interval", 10*time.Second, "Polling interval")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	log, err := openLog()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	svc := monitor.New(monitor.Config{
		DBPath:       databasePath(),
		Interval:     flagServeInterval,
		Addr:         flagServeAddr,
		EventsBuffer: flagServeEventsBuffer,
	}, log)

	fmt.Printf("  qtrail monitor listening on http://%s\n", flagServeAddr)
	fmt.Printf("  Polling %s every %s\n", databasePath(), flagServeInterval)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
