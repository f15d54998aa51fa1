package cmd

import (
	"fmt"
	"os"

	"github.com/probfoundry/qtrail/internal/trail"

	"github.com/spf13/cobra"
)

var flagExecRaw bool

var execCmd = &cobra.Command{
	Use:   "exec <query>",
	Short: "Run a query through the engine with tracing attached",
	Long: "Executes one query against the trail database's engine with the\n" +
		"session tracer attached, recording it like any traced application\n" +
		"query. Useful for smoke-testing a trail setup.",
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().BoolVar(&flagExecRaw, "sql", false, "Record at the raw SQL layer instead of the query layer")
	rootCmd.AddCommand(execCmd)
}

func runExec(_ *cobra.Command, args []string) error {
	eng, log, tracer, err := attachTracer(trail.Options{Output: os.Stderr})
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	query := args[0]
	if flagExecRaw {
		err = eng.ExecuteSQL(query)
	} else {
		err = eng.Execute(query)
	}
	if err != nil {
		// The pending entry stays in the log; that is the point.
		fmt.Fprintf(os.Stderr, "  Query failed and was recorded as uncompleted in session %d.\n",
			tracer.CurrentSessionID())
		return err
	}

	n, err := log.CountUnfinished(tracer.CurrentSessionID())
	if err != nil {
		return err
	}
	fmt.Printf("  Recorded in session %d (%d pending entries).\n", tracer.CurrentSessionID(), n)
	return nil
}
