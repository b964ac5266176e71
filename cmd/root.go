// Package cmd holds the packsim command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/packsim/packsim/app"
	"github.com/packsim/packsim/config"
	"github.com/packsim/packsim/infra/logger"
)

var (
	cfgPath string
	runLive bool
)

var rootCmd = &cobra.Command{
	Use:   "packsim",
	Short: "Battery pack electro-thermal simulator",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().BoolVar(&runLive, "live", false, "replay the simulation at wall-clock pace")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// signalContext cancels on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runLive {
		cfg.Simulation.Live = true
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
