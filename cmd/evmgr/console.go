package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/evmgr/internal/app"
	"github.com/dshills/evmgr/internal/console"
	"github.com/dshills/evmgr/internal/event"
	"github.com/dshills/evmgr/internal/producer"
)

func newConsoleCmd(flags *rootFlags) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Show dispatched events in the terminal",
		Long: "Run the event manager with a terminal display. Key presses are posted as\n" +
			"events; every event without a listener is shown. Press Esc or Ctrl-C to quit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(nil)
			if err != nil {
				return err
			}

			// The screen owns the terminal; logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				logOut = f
			}

			application, err := app.New(app.Options{Config: cfg, LogOutput: logOut})
			if err != nil {
				return err
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("failed to create terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("failed to initialize terminal: %w", err)
			}
			defer screen.Fini()

			return runConsole(cmd, application, screen)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")
	return cmd
}

// runConsole installs the console listener and keyboard producer on an
// initialized screen and runs the application until a quit key is pressed.
func runConsole(cmd *cobra.Command, application *app.Application, screen tcell.Screen) error {
	mgr := application.Manager()

	con := console.New(screen,
		console.WithTitle("evmgr "+version),
		console.WithStatus(func() string {
			return fmt.Sprintf("listeners=%d/%d  high=%d/%d  low=%d/%d",
				mgr.NumListeners(), mgr.Capacity(),
				mgr.NumEventsInQueue(event.PriorityHigh), mgr.EventQueueCapacity(),
				mgr.NumEventsInQueue(event.PriorityLow), mgr.EventQueueCapacity())
		}),
	)
	mgr.SetDefaultListener(con)

	kb := producer.NewKeyboard(mgr, screen, event.PriorityHigh,
		[]tcell.Key{tcell.KeyEscape, tcell.KeyCtrlC},
		producer.WithLogger(application.Logger()))
	if err := application.AddProducer("keyboard", kb); err != nil {
		return err
	}

	con.Draw(true)
	return application.Run(cmd.Context())
}
