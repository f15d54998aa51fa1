package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/probfoundry/qtrail/internal/collector"
	"github.com/probfoundry/qtrail/internal/config"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	// Load existing config or defaults
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to qtrail!")
	fmt.Println()

	// 1. Trail database
	fmt.Println("  1. Trail database path")
	fmt.Printf("     Current: %s\n", cfg.General.DatabasePath)
	fmt.Print("     > ")
	dbPath, _ := reader.ReadString('\n')
	dbPath = strings.TrimSpace(dbPath)
	if dbPath != "" {
		cfg.General.DatabasePath = dbPath
	}
	fmt.Println()

	// 2. Collection endpoint
	fmt.Println("  2. Collection endpoint URL")
	fmt.Printf("     Leave blank for the default (%s).\n", collector.DefaultURL)
	fmt.Print("     > ")
	url, _ := reader.ReadString('\n')
	cfg.Collector.URL = strings.TrimSpace(url)
	fmt.Println()

	// 3. Upload consent
	fmt.Println("  3. Upload consent")
	fmt.Println("     Session uploads contain the text of your queries. With consent,")
	fmt.Println("     `qtrail send` shares them with the maintainers for diagnostics.")
	fmt.Print("     Allow uploads? [y/N] ")
	consent, _ := reader.ReadString('\n')
	cfg.Collector.UploadConsent = strings.ToLower(strings.TrimSpace(consent)) == "y"
	fmt.Println()

	// 4. Theme
	fmt.Println("  4. Color theme")
	fmt.Println("     (1) Flexoki Dark [default]")
	fmt.Println("     (2) Terminal (ANSI 16)")
	fmt.Print("     > ")
	themeChoice, _ := reader.ReadString('\n')
	if strings.TrimSpace(themeChoice) == "2" {
		cfg.Appearance.Theme = "terminal"
	} else {
		cfg.Appearance.Theme = "flexoki-dark"
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `qtrail setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
