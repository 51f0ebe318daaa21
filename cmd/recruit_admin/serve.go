package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-grader/internal/server"
	"github.com/jonathan/recruit-grader/internal/server/ratelimit"
	"github.com/jonathan/recruit-grader/internal/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin HTTP API",
	Long:  `Start an HTTP server exposing the batch operations, views and exports to authenticated administrators.`,
	RunE:  runServe,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin bearer token signed with the configured secret",
	RunE:  runToken,
}

var (
	serveAddr  string
	tokenActor string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	tokenCmd.Flags().StringVar(&tokenActor, "actor", "", "Administrator ID carried by the token (required)")
	if err := tokenCmd.MarkFlagRequired("actor"); err != nil {
		panic(fmt.Sprintf("failed to mark actor flag as required: %v", err))
	}
	rootCmd.AddCommand(serveCmd, tokenCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	jwtConfig, err := cfg.JWT()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	return withApp(cmd, false, func(ctx context.Context, a *app) error {
		srv, err := server.New(a.svc, server.Config{
			Addr:          addr,
			ShutdownGrace: time.Duration(cfg.ShutdownGraceSecs * float64(time.Second)),
			JWT:           jwtConfig,
			RateLimit:     ratelimit.BatchConfig(cfg.RateLimitPerMin, cfg.RateLimitBurst),
			Metrics:       a.metrics,
			Logger:        a.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Start(ctx)
	})
}

func runToken(cmd *cobra.Command, _ []string) error {
	jwtConfig, err := cfg.JWT()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	token, err := server.NewJWTService(jwtConfig).GenerateToken(types.ActorID(tokenActor))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
