package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/drills/internal/paths"
	"github.com/mesh-intelligence/drills/internal/store"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize drills storage",
		Long:  "Create the configuration directory and config.yaml, then initialize the store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.storeConfig()
			if err != nil {
				return userError(err)
			}
			if err := os.MkdirAll(a.configDir, 0o755); err != nil {
				return sysError(fmt.Errorf("create config directory: %w", err))
			}
			path := paths.ConfigFile(a.configDir)
			written, err := writeConfigIfMissing(path, cfg)
			if err != nil {
				return sysError(fmt.Errorf("write config: %w", err))
			}

			b := store.NewBackend(store.WithLogger(a.logger))
			if err := b.Attach(cfg); err != nil {
				return sysError(fmt.Errorf("initialize storage: %w", err))
			}
			if err := b.Detach(); err != nil {
				return sysError(fmt.Errorf("finalize storage: %w", err))
			}

			out := cmd.OutOrStdout()
			if written {
				fmt.Fprintf(out, "wrote %s\n", path)
			}
			fmt.Fprintf(out, "drills initialized (%s)\n", cfg.Backend)
			return nil
		},
	}
}
