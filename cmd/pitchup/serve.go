package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitchup/internal/config"
	"github.com/verte-zerg/pitchup/internal/server"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket challenge server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", server.DefaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)

	cfg := challengeConfig(fileCfg)
	if err := validateConfig(cfg); err != nil {
		return err
	}
	srvCfg := server.Config{
		Addr:      serveAddr,
		Challenge: cfg,
	}
	if fileCfg.Server.ReadLimit != nil {
		srvCfg.ReadLimit = *fileCfg.Server.ReadLimit
	}
	if fileCfg.Server.HandshakeTimeoutMs != nil {
		srvCfg.HandshakeTimeout = time.Duration(*fileCfg.Server.HandshakeTimeoutMs) * time.Millisecond
	}

	log := openLogger(fileCfg)
	defer closeLogger(log)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logErrf("Listening on %s (ws path /ws)\n", serveAddr)
	if err := server.New(srvCfg, st, log).ListenAndServe(ctx); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}
