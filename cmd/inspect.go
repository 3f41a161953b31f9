package cmd

import (
	"slices"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/cmmoran/recordgen/internal/parser"
)

func init() {
	rootCmd.AddCommand(NewInspectCommand())
}

func NewInspectCommand() *cobra.Command {
	var inspectCmd = &cobra.Command{
		Use:   "inspect [name...]",
		Short: "dump extracted declarations",
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}

			p := parser.New(opts)
			if err := p.Parse(c.Context()); err != nil {
				return err
			}
			printDiagnostics(p.Diagnostics)

			cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
			for _, d := range p.Decls {
				if len(args) > 0 && !slices.Contains(args, d.Name) {
					continue
				}
				cfg.Fdump(c.OutOrStdout(), d)
			}
			return nil
		},
	}

	return inspectCmd
}
