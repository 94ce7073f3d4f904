package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/drills/pkg/exercise"
	"github.com/mesh-intelligence/drills/pkg/model"
	"github.com/mesh-intelligence/drills/pkg/types"
)

type mergeFlags struct {
	edits        []string
	keepModified bool
	forced       bool
	save         bool
}

func newMergeCmd(a *app) *cobra.Command {
	var mf mergeFlags
	cmd := &cobra.Command{
		Use:   "merge <exercise-id> <snapshot.json>",
		Short: "Merge a fresh snapshot into an exercise",
		Long: "Load the stored exercise, apply local edits (--edit), merge the snapshot\n" +
			"read from the file (\"-\" for stdin) and print the state of every field.\n\n" +
			"Edits take the form name=value, field.<name>=value or\n" +
			"player.<id>.<name>=value. By default incoming values overwrite local\n" +
			"edits and failed saves. --keep-modified keeps both; adding --forced\n" +
			"overwrites them anyway, so --forced only matters with --keep-modified.\n" +
			"--save saves the fields still modified after the merge.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readSnapshot(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			incoming, err := exercise.BuildExercise(raw)
			if err != nil {
				return userError(fmt.Errorf("snapshot: %w", err))
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
			for _, e := range mf.edits {
				if err := applyEdit(ex, e); err != nil {
					return userError(err)
				}
			}

			opts := model.MergeOptions{OverwriteModified: !mf.keepModified, Forced: mf.forced}
			if err := ex.Merge(incoming, opts); err != nil {
				return userError(err)
			}
			a.logger.Debug("snapshot merged", "exercise_id", ex.ID(), "overwrite_modified", opts.OverwriteModified, "forced", opts.Forced)

			if mf.save {
				if err := saveDirty(ctx, ex, b.Scope(ex.ID())); err != nil {
					return sysError(err)
				}
			}

			views := exerciseViews(ex)
			if err := printStates(cmd.OutOrStdout(), a.flags.jsonMode, views); err != nil {
				return err
			}
			return rejectedSaves(views)
		},
	}
	cmd.Flags().StringArrayVar(&mf.edits, "edit", nil, "local edit applied before the merge (repeatable)")
	cmd.Flags().BoolVar(&mf.keepModified, "keep-modified", false, "keep locally modified values")
	cmd.Flags().BoolVar(&mf.forced, "forced", false, "overwrite modified and failed fields even with --keep-modified")
	cmd.Flags().BoolVar(&mf.save, "save", false, "save fields still modified after the merge")
	return cmd
}

// applyEdit parses path=value and sets the addressed field locally.
func applyEdit(ex *exercise.Exercise, edit string) error {
	path, value, ok := strings.Cut(edit, "=")
	if !ok {
		return fmt.Errorf("edit %q: want path=value", edit)
	}
	parts := strings.Split(path, ".")

	var (
		target *model.Model
		field  string
	)
	switch {
	case len(parts) == 1:
		target, field = ex.Model, parts[0]
	case len(parts) == 2 && parts[0] == "field":
		target, field = ex.Field().Model, parts[1]
	case len(parts) == 3 && parts[0] == "player":
		p, ok := ex.Player(types.ID(parts[1]))
		if !ok {
			return fmt.Errorf("edit %q: player %s: %w", edit, parts[1], types.ErrNotFound)
		}
		target, field = p.Model, parts[2]
	default:
		return fmt.Errorf("edit %q: want name, field.<name> or player.<id>.<name>", edit)
	}

	v, err := parseValue(target.Schema(), field, value)
	if err != nil {
		return fmt.Errorf("edit %q: %w", edit, err)
	}
	return target.Set(field, v)
}

// saveDirty requests a save of every modified field of ex, its field and its
// players.
func saveDirty(ctx context.Context, ex *exercise.Exercise, store types.SavableStore) error {
	models := []*model.Model{ex.Model, ex.Field().Model}
	for _, id := range ex.PlayerIDs() {
		if p, ok := ex.Player(id); ok {
			models = append(models, p.Model)
		}
	}
	for _, m := range models {
		for _, f := range m.DirtyFields() {
			if err := m.RequestSave(ctx, store, f); err != nil {
				return err
			}
		}
	}
	return nil
}
