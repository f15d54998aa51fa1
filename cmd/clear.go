package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var flagClearForce bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all sessions and start a fresh one",
	Long: "Irreversibly deletes every recorded session and entry, resets the id\n" +
		"sequences, and starts one fresh session so the log is never empty.",
	RunE: runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&flagClearForce, "force", "f", false, "Skip confirmation")
	rootCmd.AddCommand(clearCmd)
}

func runClear(_ *cobra.Command, _ []string) error {
	if !flagClearForce {
		fmt.Printf("  Delete ALL sessions in %s? This cannot be undone. [y/N] ", databasePath())
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("  Canceled.")
			return nil
		}
	}

	log, err := openLog()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	id, err := log.ClearAll(float64(time.Now().UnixNano()) / float64(time.Second))
	if err != nil {
		return err
	}

	fmt.Printf("  Cleared. Fresh session %d started.\n", id)
	return nil
}
