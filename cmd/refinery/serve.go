package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refinery/internal/logging"
	"github.com/JonMunkholm/refinery/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cleaning widget on a local HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			slog.Info("configuration loaded",
				"addr", cfg.Server.Addr(),
				"engine", cfg.Engine.Mode,
				"max_file_size", cfg.Upload.MaxFileSize,
			)

			ctrl := newController(cfg, newExecutor(cfg), exportOptions(cfg))
			if ctrl.BootstrapEngine(cmd.Context()) {
				slog.Info("engine bootstrap started", "engine", cfg.Engine.Mode)
			}

			server := web.NewServer(ctrl, cfg)

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-sigCtx.Done():
			}

			slog.Info("shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			// Wait for a running operation so its result is not lost mid-swap
			if st := ctrl.Snapshot(); st.Limiter.Active > 0 {
				slog.Info("waiting for operation to complete", "op", st.RunningOp)
				if err := ctrl.Drain(shutdownCtx); err != nil {
					slog.Warn("operation did not complete in time", "error", err)
				}
			}

			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides SERVER_PORT)")
	return cmd
}
