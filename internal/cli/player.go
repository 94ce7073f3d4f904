package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/drills/pkg/exercise"
	"github.com/mesh-intelligence/drills/pkg/types"
)

func newPlayerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Add or remove players of an exercise",
	}
	cmd.AddCommand(newPlayerAddCmd(a), newPlayerRemoveCmd(a))
	return cmd
}

func newPlayerAddCmd(a *app) *cobra.Command {
	var d exercise.PlayerData
	var playerID string
	cmd := &cobra.Command{
		Use:   "add <exercise-id> <name>",
		Short: "Add a player to an exercise",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if d.Number < 0 {
				return userError(fmt.Errorf("player number must not be negative, got %d", d.Number))
			}
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

			d.Name = args[1]
			d.ID = types.ID(playerID)
			if d.ID == "" {
				id, err := uuid.NewV7()
				if err != nil {
					return sysError(fmt.Errorf("generate player id: %w", err))
				}
				d.ID = types.ID(id.String())
			}
			if _, exists := ex.Player(d.ID); exists {
				return userError(fmt.Errorf("player %s already in exercise %s", d.ID, ex.ID()))
			}
			p, err := exercise.NewPlayer(d)
			if err != nil {
				return userError(err)
			}
			ex.AddPlayer(p)
			if err := b.Put(ctx, ex.Data().Record()); err != nil {
				return sysError(err)
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), p.Data())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added player %s to %s\n", d.ID, ex.ID())
			return nil
		},
	}
	cmd.Flags().Int64Var(&d.Number, "number", 0, "shirt number")
	cmd.Flags().StringVar(&d.Position, "position", "", "playing position")
	cmd.Flags().StringVar(&playerID, "player-id", "", "player id (default: generated)")
	return cmd
}

func newPlayerRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <exercise-id> <player-id>",
		Short: "Remove a player from an exercise",
		Args:  cobra.ExactArgs(2),
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
			if !ex.RemovePlayer(types.ID(args[1])) {
				return userError(fmt.Errorf("player %s: %w in exercise %s", args[1], types.ErrNotFound, ex.ID()))
			}
			if err := b.Put(ctx, ex.Data().Record()); err != nil {
				return sysError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed player %s from %s\n", args[1], ex.ID())
			return nil
		},
	}
}
