package cmd

import (
	"fmt"

	"github.com/probfoundry/qtrail/internal/cli"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the session log",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	log, err := openLog()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	sessions, err := log.Sessions()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("QTRAIL  Session Log"))
	fmt.Println()

	if len(sessions) == 0 {
		fmt.Println("  No sessions recorded yet.")
		fmt.Printf("  Database: %s\n\n", databasePath())
		return nil
	}

	var entries, pending int
	for _, s := range sessions {
		entries += s.Entries
		pending += s.Pending
	}
	current := sessions[len(sessions)-1]

	fmt.Printf("  Database:        %s\n", databasePath())
	fmt.Printf("  Sessions:        %s\n", cli.FormatCount(int64(len(sessions))))
	fmt.Printf("  Entries:         %s (%s pending)\n",
		cli.FormatCount(int64(entries)), cli.FormatCount(int64(pending)))
	fmt.Printf("  Current session: %d (%d entries)\n", current.ID, current.Entries)
	fmt.Println()

	if current.Pending > 0 {
		fmt.Println(cli.RenderWarning(fmt.Sprintf(
			"Latest session has %d uncompleted entries. It may have crashed or "+
				"been terminated mid-query. Consider `qtrail send`.", current.Pending)))
		fmt.Println()
	}

	return nil
}
