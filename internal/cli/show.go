package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/drills/pkg/exercise"
	"github.com/mesh-intelligence/drills/pkg/types"
)

func newShowCmd(a *app) *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "show <exercise-id>",
		Short: "Show an exercise with its field and players",
		Long: "Show an exercise with its field and players.\n\n" +
			"--where filters players with an expression over id, name, number and\n" +
			"position, e.g. --where 'position == \"back\" && number < 6'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := compilePlayerFilter(where)
			if err != nil {
				return userError(err)
			}
			b, err := a.attachStore()
			if err != nil {
				return err
			}
			defer b.Detach()

			ex, err := loadExercise(cmd.Context(), b, args[0])
			if err != nil {
				return err
			}
			players, err := filterPlayers(ex, filter)
			if err != nil {
				return userError(err)
			}

			if a.flags.jsonMode {
				d := ex.Data()
				d.Players = make(map[types.ID]exercise.PlayerData, len(players))
				for _, p := range players {
					d.Players[p.ID()] = p.Data()
				}
				return printJSON(cmd.OutOrStdout(), d)
			}
			views := modelViews(ex.Model)
			views = append(views, modelViews(ex.Field().Model)...)
			for _, p := range players {
				views = append(views, modelViews(p.Model)...)
			}
			return printStates(cmd.OutOrStdout(), false, views)
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "expression selecting players")
	return cmd
}

// filterPlayers returns the players of ex matching filter in id order.
func filterPlayers(ex *exercise.Exercise, filter *playerFilter) ([]*exercise.Player, error) {
	var out []*exercise.Player
	for _, id := range ex.PlayerIDs() {
		p, ok := ex.Player(id)
		if !ok {
			continue
		}
		match, err := filter.Match(p)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, p)
		}
	}
	return out, nil
}
