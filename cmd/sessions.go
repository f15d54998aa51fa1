package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/probfoundry/qtrail/internal/cli"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List all recorded sessions",
	RunE:  runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(_ *cobra.Command, _ []string) error {
	log, err := openLog()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	sessions, err := log.Sessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions recorded yet.")
		return nil
	}

	now := time.Now()
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			cli.FormatUnixTime(s.StartedAt),
			cli.FormatAge(s.StartedAt, now),
			cli.FormatCount(int64(s.Entries)),
			cli.FormatCount(int64(s.Pending)),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:      fmt.Sprintf("SESSIONS (%d)", len(sessions)),
		Headers:    []string{"ID", "Started", "Age", "Entries", "Pending"},
		Rows:       rows,
		RightAlign: map[int]bool{0: true, 3: true, 4: true},
	}))
	fmt.Println()

	return nil
}
