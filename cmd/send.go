package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/probfoundry/qtrail/internal/collector"
	"github.com/probfoundry/qtrail/internal/config"
	"github.com/probfoundry/qtrail/internal/trail"

	"github.com/spf13/cobra"
)

var flagSendYes bool

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Upload all sessions to the collection endpoint",
	Long: "Uploads every recorded session, oldest first, to the remote\n" +
		"collection endpoint. Traces contain your query text; uploads require\n" +
		"consent, either saved via `qtrail setup` or given with --yes.",
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVarP(&flagSendYes, "yes", "y", false, "Consent to uploading usage traces")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, _ := config.Load()
	if !flagSendYes && !cfg.Collector.UploadConsent {
		return errors.New("upload requires consent: run `qtrail setup` or pass --yes")
	}

	eng, _, tracer, err := attachTracer(trail.Options{
		Output:    os.Stderr,
		Collector: collector.NewClient(collectorURL()),
	})
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	if err := tracer.SendSessionData(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("  All sessions sent.")
	return nil
}
