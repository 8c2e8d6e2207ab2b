// Package cli implements the cobra commands of workshopmods.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// globalFlags are bound to the root command's persistent flags.
type globalFlags struct {
	configPath string
	dbPath     string
	verbose    bool

	// console receives human-readable log output. Tests replace it.
	console io.Writer
}

// NewRootCommand returns the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stderr)
}

func newRootCommand(console io.Writer) *cobra.Command {
	g := &globalFlags{console: console}
	root := &cobra.Command{
		Use:   "workshopmods",
		Short: "Extract Project Zomboid mod IDs from Steam Workshop items",
		Long: `workshopmods reads Workshop item IDs from Saves_and_Output/WorkshopID.txt
and resolves the mod IDs each item ships, either by reading the item's
Workshop page (web) or by downloading it with SteamCMD (download).

Examples:
  workshopmods init
  workshopmods import-ini Zomboid/Server/servertest.ini
  workshopmods import-collection https://steamcommunity.com/sharedfiles/filedetails/?id=2487022075
  workshopmods web
  workshopmods download --db runs.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite file (or directory) for run history")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newWebCommand(g))
	root.AddCommand(newDownloadCommand(g))
	root.AddCommand(newImportINICommand(g))
	root.AddCommand(newImportCollectionCommand(g))
	root.AddCommand(newInitCommand(g))
	root.AddCommand(newServeCommand(g))
	root.AddCommand(newHistoryCommand(g))
	return root
}

// Execute runs root until it finishes or the process is interrupted and
// returns the exit code.
func Execute(root *cobra.Command) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
