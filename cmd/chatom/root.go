package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Point72/chatom/bootstrap"
	"github.com/Point72/chatom/config"
	"github.com/Point72/chatom/core/model"
	"github.com/Point72/chatom/pkg/codec"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	cfgFile string
	output  string
	diag    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "chatom",
		Short: "Convert chat entities between canonical and backend-specific forms",
		Long: `chatom converts chat entities (users, channels, messages, presence)
between their canonical form and the variants used by each chat backend.

Documents are YAML, JSON or CBOR files of the form:

  type: User
  fields:
    id: U1
    name: Ann

Examples:
  chatom types
  chatom validate user.yaml --backend slack
  chatom promote user.yaml --backend slack --set team_id=T1
  chatom demote slack-user.json
  chatom serve`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "chatom.yaml", "config file path")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output format: yaml, json or cbor (default from config)")
	cmd.PersistentFlags().BoolVar(&opts.diag, "diag", false, "with -o cbor, print CBOR diagnostic notation instead of binary")

	cmd.AddCommand(
		newTypesCmd(opts),
		newValidateCmd(opts),
		newPromoteCmd(opts),
		newDemoteCmd(opts),
		newWatchCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads the config file when present, else env and defaults.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	return config.LoadWithFallback(o.cfgFile)
}

// newApp builds the engine with logs sent to stderr.
func (o *globalOptions) newApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, bootstrap.Options{Version: version, LogOutput: cmd.ErrOrStderr()})
}

// outputFormat resolves --output against the configured default.
func (o *globalOptions) outputFormat(a *bootstrap.App) (codec.Format, error) {
	name := o.output
	if name == "" {
		name = a.Config.Output
	}
	return codec.ParseFormat(name)
}

// writeDocument encodes doc to stdout, as CBOR diagnostic notation
// when --diag is set.
func (o *globalOptions) writeDocument(cmd *cobra.Command, format codec.Format, doc model.Document) error {
	if !o.diag {
		return codec.EncodeDocument(cmd.OutOrStdout(), format, doc)
	}
	if format != codec.CBOR {
		return fmt.Errorf("--diag needs cbor output, got %s", format)
	}
	var buf bytes.Buffer
	if err := codec.EncodeDocument(&buf, format, doc); err != nil {
		return err
	}
	diag, err := codec.Diagnose(buf.Bytes())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), diag)
	return err
}

// readDocument reads a document file, or stdin for "-". The format
// follows the file extension; stdin and unknown extensions are read
// as YAML, which also accepts JSON.
func readDocument(cmd *cobra.Command, path string) (model.Document, error) {
	var (
		r io.Reader
		f = codec.YAML
	)
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		file, openErr := os.Open(path)
		if openErr != nil {
			return model.Document{}, openErr
		}
		defer file.Close()
		r = file
		if byExt, ok := codec.FormatFromPath(path); ok {
			f = byExt
		}
	}

	doc, err := codec.DecodeDocument(r, f)
	if err != nil {
		return model.Document{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return doc, nil
}
