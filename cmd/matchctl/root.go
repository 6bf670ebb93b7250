// cmd/matchctl/root.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"matching-workers/internal/bootstrap"
	"matching-workers/internal/common/config"
	"matching-workers/internal/common/logger"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "matchctl",
		Short:         "Operate the contractor matching engine",
		Long:          "matchctl runs matching engine operations directly against the configured stores, outside the BPMN workflows.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose logging")

	root.AddCommand(
		newRegistryCmd(),
		newMatchCmd(opts),
		newLeadCmd(opts),
		newContractorsCmd(opts),
	)
	return root
}

func (o *options) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}

func (o *options) logger(cfg *config.Config) logger.Logger {
	level := cfg.Logging.Level
	if o.debug {
		level = "debug"
	}
	// stdout carries command output
	return logger.NewStructured(level, "console", "stderr")
}

// withServices loads config, connects the stores once and runs fn.
func (o *options) withServices(ctx context.Context, fn func(*bootstrap.Services) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	svc, err := bootstrap.Build(ctx, cfg, o.logger(cfg), nil, bootstrap.RetryPolicy{Attempts: 1})
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
