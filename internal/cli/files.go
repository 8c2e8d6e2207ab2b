package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"workshopmods/internal/extract"
	"workshopmods/internal/source"
	"workshopmods/internal/steam"
)

func newImportINICommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import-ini <server.ini>",
		Short: "Copy WorkshopItems from a dedicated-server ini into the source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			l := consoleLogger(g, cfg)
			ids, err := source.ReadServerINI(args[0])
			if err != nil {
				l.Error().Err(err).Str("path", args[0]).Msg("read server ini")
				return err
			}
			if len(ids) == 0 {
				l.Warn().Str("path", args[0]).Msg("no workshop ids in server ini")
				fmt.Fprintf(cmd.OutOrStdout(), "no workshop ids in %s, %s left unchanged\n", args[0], cfg.SourceFile)
				return nil
			}
			if err := source.Write(cfg.SourceFile, ids); err != nil {
				return err
			}
			l.Info().Int("items", len(ids)).Str("path", cfg.SourceFile).Msg("workshop ids imported")
			fmt.Fprintf(cmd.OutOrStdout(), "%d workshop ids written to %s\n", len(ids), cfg.SourceFile)
			return nil
		},
	}
}

func newImportCollectionCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import-collection <collection-url|id>",
		Short: "Add the items of a Workshop collection to the source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			l := consoleLogger(g, cfg)
			id, err := source.ItemIDFromArg(args[0])
			if err != nil {
				return err
			}
			url := steam.DetailURL(id)
			page, err := newFetcher(l).Fetch(cmd.Context(), url)
			if err != nil {
				l.Error().Err(err).Str("url", url).Msg("fetch collection")
				return err
			}
			ids := extract.CollectionItemIDs(string(page))
			if len(ids) == 0 {
				l.Warn().Str("collection", id).Msg("no items found in collection")
				fmt.Fprintf(cmd.OutOrStdout(), "no items in collection %s, %s left unchanged\n", id, cfg.SourceFile)
				return nil
			}
			added, err := source.Merge(cfg.SourceFile, ids)
			if err != nil {
				l.Error().Err(err).Str("path", cfg.SourceFile).Msg("merge collection")
				return err
			}
			l.Info().Str("collection", id).Int("items", len(ids)).Int("added", len(added)).
				Str("path", cfg.SourceFile).Msg("collection imported")
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d collection items added to %s\n", len(added), len(ids), cfg.SourceFile)
			return nil
		},
	}
}

func newInitCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the working folders and an empty source file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			l := consoleLogger(g, cfg)
			dirs := []string{
				filepath.Dir(cfg.SourceFile),
				filepath.Dir(cfg.Web.MappingFile),
				filepath.Dir(cfg.Download.MappingFile),
				cfg.Log.Dir,
				cfg.Download.OutputDir,
			}
			for _, d := range dirs {
				if err := os.MkdirAll(d, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", d, err)
				}
				l.Debug().Str("dir", d).Msg("directory ready")
			}
			created, err := source.Seed(cfg.SourceFile)
			if err != nil {
				return err
			}
			if created {
				l.Info().Str("path", cfg.SourceFile).Msg("source file created, add ids after WorkshopItems=")
			} else {
				l.Info().Str("path", cfg.SourceFile).Msg("source file already present")
			}
			return nil
		},
	}
}
