package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
	"github.com/light-bringer/catalog-mirror/internal/services"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the catalog schema for the configured store",
		Long: `Apply the embedded catalog schema to the store named by STORE_DRIVER.
Spanner schemas are applied through the database admin API.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, cmd)
		},
	}
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	cfg, logger, err := loadRuntime(opts, cmd.ErrOrStderr(), "text")
	if err != nil {
		return err
	}

	storeOpts := services.StoreOptions(cfg)
	store, err := repo.Open(ctx, storeOpts, clock.NewRealClock())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer store.Close()

	if err := repo.Migrate(ctx, store, storeOpts); err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "migration failed", err)
	}
	logger.Info("schema_applied", "driver", cfg.StoreDriver)

	return formatter.Success(
		map[string]string{"driver": cfg.StoreDriver},
		fmt.Sprintf("schema applied (%s)\n", cfg.StoreDriver),
	)
}
