package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/chat"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/server"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/shared/id"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	envFile  string
	port     string
	provider string
	language string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "krishimitra",
		Short:        "KrishiMitra farm assistant backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&opts.provider, "provider", "", "override AI_PROVIDER (gemini, chatapi, none)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serve.Flags().StringVar(&opts.port, "port", "", "override PORT")

	ask := &cobra.Command{
		Use:   "ask [message]",
		Short: "Resolve one message and print the JSON response",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, strings.Join(args, " "))
		},
	}
	ask.Flags().StringVarP(&opts.language, "lang", "l", chat.DefaultLanguage, "response language code")

	root.AddCommand(serve, ask)
	return root
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.LoadFiles(opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}
	if opts.provider != "" {
		cfg.AI.Provider = opts.provider
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
}

func runServe(parent context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create server", zap.Error(err))
		return err
	}
	return srv.Run(ctx)
}

func runAsk(cmd *cobra.Command, opts *options, message string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := id.WithRequest(cmd.Context(), id.NewRequestID())
	srv, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	resp := srv.Resolver().Resolve(ctx, chat.Request{Message: message, Language: opts.language})
	out, err := sonic.ConfigStd.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
