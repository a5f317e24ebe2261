package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Point72/chatom/bootstrap"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var hotReload bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the conversion HTTP server",
		Long: `Start the chatom HTTP server.

The server will:
  - Load configuration from chatom.yaml (or --config)
  - Or load configuration from CHATOM_* environment variables
  - Serve validate, promote and demote endpoints
  - Expose Prometheus metrics at /metrics when enabled

Environment variables:
  CHATOM_SERVER_HOST      - Server host (default: 0.0.0.0)
  CHATOM_SERVER_PORT      - Server port (default: 8080)
  CHATOM_BACKENDS         - Comma-separated enabled backends (default: all)
  CHATOM_REGISTRY_MODE    - lazy or eager (default: lazy)
  CHATOM_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  chatom serve
  chatom serve --config /etc/chatom/config.yaml
  chatom serve --hot-reload=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			bopts := bootstrap.Options{Version: version, LogOutput: cmd.ErrOrStderr()}
			if hotReload {
				bopts.ConfigPath = opts.cfgFile
			}
			a, err := bootstrap.New(cfg, bopts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&hotReload, "hot-reload", true, "reload the log level when the config file changes")
	return cmd
}
