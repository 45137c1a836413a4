package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/evmgr/internal/app"
	"github.com/dshills/evmgr/internal/config"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var httpAddr string
	var metrics bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the event manager as a service",
		Long: "Run the event manager headless, fed by the configured producers and,\n" +
			"when an HTTP address is set, by POST /events.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(func(c *config.Config) {
				if cmd.Flags().Changed("http") {
					c.HTTP.Addr = httpAddr
				}
				if cmd.Flags().Changed("metrics") {
					c.Metrics.Enabled = metrics
				}
			})
			if err != nil {
				return err
			}

			application, err := app.New(app.Options{Config: cfg, LogOutput: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP listen address, e.g. :8080")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "serve Prometheus metrics on the HTTP address")
	return cmd
}
