package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/drills/pkg/exercise"
	"github.com/mesh-intelligence/drills/pkg/model"
	"github.com/mesh-intelligence/drills/pkg/types"
)

func newSetCmd(a *app) *cobra.Command {
	var (
		playerID string
		onField  bool
	)
	cmd := &cobra.Command{
		Use:   "set <exercise-id> <field> <value>",
		Short: "Edit one field and save it",
		Long: "Edit one field of an exercise, its field (--field) or one of its\n" +
			"players (--player ID), then save it. A rejected save prints the\n" +
			"field error and exits with status 1.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.attachStore()
			if err != nil {
				return err
			}
			defer b.Detach()

			ctx := cmd.Context()
			ex, err := loadExercise(ctx, b, args[0])
			if err != nil {
				return err
			}
			target, err := selectTarget(ex, playerID, onField)
			if err != nil {
				return userError(err)
			}

			field := args[1]
			value, err := parseValue(target.Schema(), field, args[2])
			if err != nil {
				return userError(err)
			}
			if err := target.Set(field, value); err != nil {
				return userError(err)
			}
			if err := target.RequestSave(ctx, b.Scope(ex.ID()), field); err != nil {
				return sysError(err)
			}

			views := modelViews(target)
			if err := printStates(cmd.OutOrStdout(), a.flags.jsonMode, views); err != nil {
				return err
			}
			return rejectedSaves(views)
		},
	}
	cmd.Flags().StringVar(&playerID, "player", "", "edit the player with this id")
	cmd.Flags().BoolVar(&onField, "field", false, "edit the exercise's field")
	cmd.MarkFlagsMutuallyExclusive("player", "field")
	return cmd
}

// selectTarget returns the model a set command edits.
func selectTarget(ex *exercise.Exercise, playerID string, onField bool) (*model.Model, error) {
	switch {
	case onField:
		return ex.Field().Model, nil
	case playerID != "":
		p, ok := ex.Player(types.ID(playerID))
		if !ok {
			return nil, fmt.Errorf("player %s: %w in exercise %s", playerID, types.ErrNotFound, ex.ID())
		}
		return p.Model, nil
	default:
		return ex.Model, nil
	}
}

// rejectedSaves returns a user error if any field carries a save error.
func rejectedSaves(views []fieldView) error {
	n := 0
	for _, v := range views {
		if v.Error != "" {
			n++
		}
	}
	if n > 0 {
		return userError(fmt.Errorf("%d field save(s) rejected", n))
	}
	return nil
}
