package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/services"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "sync",
		Short:         "Run one sync pass and print its report",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	cfg, logger, err := loadRuntime(opts, cmd.ErrOrStderr(), "text")
	if err != nil {
		return err
	}

	svc, err := services.NewServiceOptions(ctx, cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer svc.Close()

	report, err := svc.Scheduler.Run(ctx, domain.TriggerCLI)
	if err != nil {
		var details any
		if report != nil {
			details = report
		}
		msg := "Error syncing products: " + err.Error()
		if n, cerr := svc.CountRecords.Execute(context.WithoutCancel(ctx)); cerr == nil {
			msg += fmt.Sprintf(" (total products: %d)", n)
		}
		_ = formatter.Error(msg, details)
		return WrapExitError(ExitFailure, "sync failed", err)
	}
	return formatter.Success(report, report.Summary())
}
