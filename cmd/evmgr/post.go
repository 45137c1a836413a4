package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/evmgr/internal/event"
	"github.com/dshills/evmgr/internal/httpapi"
)

func newPostCmd() *cobra.Command {
	var url string
	var priority string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "post CODE [PARAM]",
		Short: "Queue an event on a running instance",
		Long: "Queue an event on a running evmgr over HTTP. CODE is an event name such\n" +
			"as timer0 or user3, or a number. PARAM defaults to 0.",
		Example: "  evmgr post user3 42 --priority high\n  evmgr post 7 --url http://10.0.0.5:8080",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := event.ParseCode(args[0])
			if err != nil {
				return err
			}
			param := 0
			if len(args) == 2 {
				if param, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid param %q: %w", args[1], err)
				}
			}
			pri, err := event.ParsePriority(priority)
			if err != nil {
				return err
			}

			body, err := json.Marshal(httpapi.EventRequest{
				Code:     httpapi.Code(code),
				Param:    param,
				Priority: pri.String(),
			})
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: timeout}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
				strings.TrimRight(url, "/")+"/events", bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusAccepted {
				var e httpapi.ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
					return fmt.Errorf("event rejected: %s", resp.Status)
				}
				return fmt.Errorf("event rejected: %s", e.Error)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "queued %s (%d) param=%d priority=%s\n",
				event.CodeName(code), code, param, pri)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://127.0.0.1:8080", "base URL of the running instance")
	cmd.Flags().StringVarP(&priority, "priority", "p", "low", "event priority: high or low")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}
