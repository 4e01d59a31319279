package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
	"github.com/light-bringer/catalog-mirror/internal/services"
)

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:           "prune",
		Short:         "Delete all but the most recently updated records",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(rootOpts, cmd, keep)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", -1, "records to keep (default: configured capacity)")

	return cmd
}

func runPrune(opts *RootOptions, cmd *cobra.Command, keep int) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	cfg, logger, err := loadRuntime(opts, cmd.ErrOrStderr(), "text")
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("keep") {
		keep = cfg.Capacity
	}
	if keep < 0 {
		return WrapExitError(ExitCommandError, "invalid --keep", domain.ErrInvalidCapacity)
	}

	store, err := repo.Open(ctx, services.StoreOptions(cfg), clock.NewRealClock())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer store.Close()

	pruned, err := store.PruneToNewest(ctx, keep)
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitFailure, "prune failed", err)
	}
	logger.Info("records_pruned", "kept", keep, "pruned", pruned)

	return formatter.Success(
		map[string]int{"kept": keep, "pruned": pruned},
		fmt.Sprintf("pruned %d records\n", pruned),
	)
}
