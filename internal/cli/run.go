package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"workshopmods/internal/pipeline"
	"workshopmods/internal/source"
)

type runFlags struct {
	items []string
}

func newWebCommand(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Resolve mod IDs from Workshop detail pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := parseItems(f.items)
			if err != nil {
				return err
			}
			a, err := newApp(g, webLog)
			if err != nil {
				return err
			}
			defer a.Close()
			run, err := a.webPipeline(items).Run(cmd.Context())
			if err != nil {
				return err
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&f.items, "item", nil, "Workshop item ID or URL, overrides the source file (repeatable)")
	return cmd
}

func newDownloadCommand(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download items with SteamCMD and read their mod.info files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := parseItems(f.items)
			if err != nil {
				return err
			}
			a, err := newApp(g, downloadLog)
			if err != nil {
				return err
			}
			defer a.Close()
			p, err := a.downloadPipeline(items)
			if err != nil {
				return err
			}
			run, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&f.items, "item", nil, "Workshop item ID or URL, overrides the source file (repeatable)")
	return cmd
}

func parseItems(args []string) ([]string, error) {
	var ids []string
	for _, a := range args {
		id, err := source.ItemIDFromArg(a)
		if err != nil {
			return nil, fmt.Errorf("--item %q: %w", a, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printRun(w io.Writer, run *pipeline.Run) {
	s := run.Summary
	fmt.Fprintf(w, "%s run %s: %d items, %d found, %d not found, %d failed, %d mod ids\n",
		run.Variant, run.ID, s.Items, s.Found, s.NotFound, s.Failed, s.ModIDs)
}
