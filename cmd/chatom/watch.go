package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Point72/chatom/app"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Validate documents in a directory as they change",
		Long: `Validate every document in DIR against a backend, then keep
validating files as they are written. One line is printed per file.
Stop with Ctrl-C.

Examples:
  chatom watch ./fixtures --backend slack`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			w := app.NewWatcher(a.Convert, args[0], backend, a.Logger, func(r app.WatchResult) {
				if a.Metrics != nil {
					a.Metrics.FilesProcessed.WithLabelValues(r.Outcome()).Inc()
				}
				switch r.Outcome() {
				case app.WatchValid:
					fmt.Fprintf(out, "%s\tvalid\t%s\n", r.Path, r.Document.Type)
				case app.WatchInvalid:
					fmt.Fprintf(out, "%s\tinvalid\t%s\n", r.Path, r.Result)
				default:
					fmt.Fprintf(out, "%s\terror\t%v\n", r.Path, r.Err)
				}
			})
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&backend, "backend", "b", "", "target backend")
	cmd.MarkFlagRequired("backend")
	return cmd
}
