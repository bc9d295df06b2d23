package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowbaker/categorizer/internal/initialization"
	"github.com/flowbaker/categorizer/internal/server"
	"github.com/flowbaker/categorizer/internal/version"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	return cmd
}

func runServe(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	container, err := initialization.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	log.Info().
		Str("version", version.GetVersion()).
		Str("address", cfg.Server.Address()).
		Msg("Starting categorizer service")

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		Config:             cfg.Server,
		CategoryController: container.CategoryController,
	})

	if err := server.Serve(ctx, app, cfg.Server.Address()); err != nil {
		log.Error().Err(err).Msg("HTTP server stopped")
		return err
	}

	log.Info().Msg("Categorizer service stopped")

	return nil
}
