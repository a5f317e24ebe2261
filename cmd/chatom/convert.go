package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Point72/chatom/pkg/codec"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check whether a document can be promoted to a backend",
		Long: `Validate a document against the variant registered for a backend.

The report lists missing required fields, invalid fields, and fields
that would be dropped. The command fails when the document is not valid.

Examples:
  chatom validate user.yaml --backend slack
  cat user.json | chatom validate - --backend discord -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			format, err := opts.outputFormat(a)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			result, err := a.Convert.Validate(doc, backend)
			if err != nil {
				return err
			}
			if err := codec.Encode(cmd.OutOrStdout(), format, result); err != nil {
				return err
			}
			if !result.Valid {
				return fmt.Errorf("%s is not valid for %s: %s", doc.Type, backend, result)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&backend, "backend", "b", "", "target backend")
	cmd.MarkFlagRequired("backend")
	return cmd
}

func newPromoteCmd(opts *globalOptions) *cobra.Command {
	var (
		backend string
		sets    []string
	)

	cmd := &cobra.Command{
		Use:   "promote FILE",
		Short: "Convert a document to a backend variant",
		Long: `Promote a document to the variant registered for a backend.

Backend-only fields are supplied with --set. Values are parsed as YAML
scalars, so --set is_admin=true sets a boolean. A --set value replaces
a field of the same name from the document.

Examples:
  chatom promote user.yaml --backend slack
  chatom promote user.yaml --backend slack --set team_id=T1 -o json
  chatom promote user.yaml --backend slack -o cbor --diag`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := parseSets(sets)
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			format, err := opts.outputFormat(a)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			out, err := a.Convert.Promote(doc, backend, extra)
			if err != nil {
				return err
			}
			return opts.writeDocument(cmd, format, out)
		},
	}

	cmd.Flags().StringVarP(&backend, "backend", "b", "", "target backend")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "extra field as key=value (repeatable)")
	cmd.MarkFlagRequired("backend")
	return cmd
}

func newDemoteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demote FILE",
		Short: "Convert a backend document to its canonical type",
		Long: `Demote a backend variant to its canonical type. Backend-only fields
are dropped.

Examples:
  chatom demote slack-user.yaml
  chatom demote discord-message.json -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			format, err := opts.outputFormat(a)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			out, err := a.Convert.Demote(doc)
			if err != nil {
				return err
			}
			return opts.writeDocument(cmd, format, out)
		},
	}
}

// parseSets turns key=value pairs into extra fields.
func parseSets(sets []string) (map[string]any, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	extra := make(map[string]any, len(sets))
	for _, kv := range sets {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", kv, err)
		}
		if value == nil && raw != "null" && raw != "~" {
			value = raw
		}
		extra[key] = value
	}
	return extra, nil
}
