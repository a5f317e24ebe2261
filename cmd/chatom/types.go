package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Point72/chatom/app"
	"github.com/Point72/chatom/pkg/codec"
)

func newTypesCmd(opts *globalOptions) *cobra.Command {
	var table bool

	cmd := &cobra.Command{
		Use:   "types [NAME]",
		Short: "List known types, or describe one",
		Long: `List the canonical and backend types in the catalog.

With a NAME, print that type's family, ancestors, fields and, for
canonical types, the backends it can be promoted to.

Examples:
  chatom types
  chatom types User
  chatom types --table=false -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				info, err := a.Types.Get(args[0])
				if err != nil {
					return err
				}
				format, err := opts.outputFormat(a)
				if err != nil {
					return err
				}
				return codec.Encode(cmd.OutOrStdout(), format, info)
			}

			list, err := a.Types.List()
			if err != nil {
				return err
			}
			if !table {
				format, err := opts.outputFormat(a)
				if err != nil {
					return err
				}
				return codec.Encode(cmd.OutOrStdout(), format, list)
			}
			return printTypes(cmd, list)
		},
	}

	cmd.Flags().BoolVar(&table, "table", true, "print a table instead of encoded output")
	return cmd
}

func printTypes(cmd *cobra.Command, list []app.TypeInfo) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFAMILY\tBACKEND\tVARIANT OF\tFIELDS")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			t.Name, t.Family, dash(t.Backend), dash(t.VariantOf), len(t.Fields))
	}
	return tw.Flush()
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
