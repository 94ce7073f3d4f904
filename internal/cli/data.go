package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/drills/internal/store"
	"github.com/mesh-intelligence/drills/pkg/types"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Load exercises from a JSONL file",
		Long:  "Store every exercise record in the file, one JSON object per line.\nInvalid lines are skipped and logged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.attachStore()
			if err != nil {
				return err
			}
			defer b.Detach()

			n, err := b.ImportJSONL(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d exercises\n", n)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.jsonl>",
		Short: "Write all exercises to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.attachStore()
			if err != nil {
				return err
			}
			defer b.Detach()

			n, err := b.ExportJSONL(cmd.Context(), args[0])
			if err != nil {
				return sysError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d exercises\n", n)
			return nil
		},
	}
}

// exerciseSummary is one line of the list command.
type exerciseSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.attachStore()
			if err != nil {
				return err
			}
			defer b.Detach()

			ctx := cmd.Context()
			ids, err := b.List(ctx)
			if err != nil {
				return sysError(err)
			}
			summaries := make([]exerciseSummary, 0, len(ids))
			for _, id := range ids {
				ex, err := loadExercise(ctx, b, id.String())
				if err != nil {
					return err
				}
				summaries = append(summaries, exerciseSummary{ID: id.String(), Name: ex.Name(), Players: len(ex.PlayerIDs())})
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), summaries)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPLAYERS")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", s.ID, s.Name, s.Players)
			}
			return tw.Flush()
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <exercise-id>",
		Short: "Show the saved field changes of an exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.attachStore()
			if err != nil {
				return err
			}
			defer b.Detach()

			ctx := cmd.Context()
			if _, err := b.Fetch(ctx, types.ID(args[0])); err != nil {
				return storeError(err)
			}
			txs, err := b.Transactions(ctx, types.ID(args[0]))
			if err != nil {
				return sysError(err)
			}
			if txs == nil {
				txs = []store.Transaction{}
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), txs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tKIND\tID\tFIELD\tVALUE")
			for _, t := range txs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.CreatedAt.Format("2006-01-02 15:04:05"), t.EntityKind, t.EntityID, t.Field, t.Value)
			}
			return tw.Flush()
		},
	}
}
