package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/light-bringer/catalog-mirror/internal/services"
	"github.com/light-bringer/catalog-mirror/internal/transport/grpc/catalog"
	httphandler "github.com/light-bringer/catalog-mirror/internal/transport/http"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler with the HTTP and gRPC servers",
		Long: `Run the periodic sync scheduler and serve the HTTP API and the
catalogmirror.v1.CatalogSync gRPC service until SIGINT or SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, cmd)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	cfg, logger, err := loadRuntime(opts, cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}

	logger.Info("starting catalog mirror",
		"store", cfg.StoreDriver,
		"capacity", cfg.Capacity,
		"interval", cfg.SyncInterval.String(),
		"http_addr", cfg.HTTPAddr,
		"grpc_addr", cfg.GRPCAddr,
	)

	// 1. Dependencies
	svc, err := services.NewServiceOptions(ctx, cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize service", err)
	}
	defer svc.Close()

	// 2. gRPC server
	grpcServer := grpc.NewServer()
	catalog.RegisterCatalogSyncServer(grpcServer, svc.CatalogHandler)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen on gRPC address", err)
	}

	// 3. HTTP server
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httphandler.NewRouter(svc.HTTPHandler, logger),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("grpc_listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("http_listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 4. Timed passes
	svc.Scheduler.Start(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		logger.Error("server_failed", "error", serveErr)
	}

	// 5. Graceful shutdown
	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	svc.Scheduler.Stop()

	if serveErr != nil {
		return WrapExitError(ExitFailure, "server error", serveErr)
	}
	return nil
}
