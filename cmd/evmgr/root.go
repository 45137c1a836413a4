package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/evmgr/internal/config"
)

// rootFlags holds flags shared by every command.
type rootFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "evmgr",
		Short: "Fixed-memory event manager",
		Long: "evmgr queues discrete (code, param) events in two fixed-capacity priority\n" +
			"queues and dispatches them to the listeners registered for each code.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to configuration file (.toml, .yaml, .json)")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "optional .env file loaded before EVMGR_* variables")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		newRunCmd(flags),
		newConsoleCmd(flags),
		newPostCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig resolves the configuration and applies command-line overrides.
func (f *rootFlags) loadConfig(override func(*config.Config)) (config.Config, error) {
	cfg, err := config.Resolve(f.configPath, f.envFile)
	if err != nil {
		return cfg, err
	}

	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if override != nil {
		override(&cfg)
	}
	return cfg, cfg.Validate()
}
