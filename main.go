package main

import (
	"fmt"
	"os"

	"orderdesk/internal/config"
	"orderdesk/internal/orderapi"
	"orderdesk/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli holds state shared by every command.
type cli struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "orderdesk",
		Short:         "orderdesk: order server and list view",
		Long:          "orderdesk serves the orders REST API and manages orders from the terminal through the same API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (yaml, json, toml or env)")

	root.AddCommand(c.serveCmd())
	root.AddCommand(c.ordersCmd())
	root.AddCommand(c.tokenCmd())
	root.AddCommand(c.eventsCmd())
	return root
}

func (c *cli) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(viper.New(), c.configFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newAPIClient(cfg *config.Config, log *zap.Logger) *orderapi.Client {
	opts := []orderapi.Option{
		orderapi.WithTimeout(cfg.APITimeout),
		orderapi.WithLogger(log),
	}
	if cfg.APIToken != "" {
		opts = append(opts, orderapi.WithToken(cfg.APIToken))
	}
	return orderapi.NewClient(cfg.APIBaseURL, opts...)
}
