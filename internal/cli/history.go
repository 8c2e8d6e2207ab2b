package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"workshopmods/internal/store"
)

var errNoDB = errors.New("run history needs --db or db_path")

func newHistoryCommand(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored runs, or show one run item by item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return errNoDB
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()
			if len(args) == 1 {
				run, err := st.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "ITEM\tSTATUS\tMOD IDS\tTITLE\n")
				for _, it := range run.Results {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ItemID, it.Status, strings.Join(it.ModIDs, ";"), it.Title)
				}
				return nil
			}
			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "ID\tVARIANT\tSTARTED\tITEMS\tFOUND\n")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", r.ID, r.Variant, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Items, r.Found)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	return cmd
}
