package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/probfoundry/qtrail/internal/store"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [session-id]",
	Short: "Dump a session's entries as JSON (defaults to the latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(_ *cobra.Command, args []string) error {
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
		return fmt.Errorf("no sessions recorded in %s", databasePath())
	}
	latest := sessions[len(sessions)-1].ID

	id := latest
	if len(args) == 1 {
		id, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session id %q", args[0])
		}
	}
	if id < 1 || id > latest {
		return fmt.Errorf("no such session %d (log has sessions 1..%d)", id, latest)
	}

	entries, err := log.Entries(id)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []store.Entry{}
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
