package cmd

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cmmoran/recordgen/pkg/action/annotate"
)

func init() {
	rootCmd.AddCommand(NewAnnotateCommand())
}

func NewAnnotateCommand() *cobra.Command {
	var write bool

	var annotateCmd = &cobra.Command{
		Use:   "annotate",
		Short: "apply injection macros",
		Long:  "Run the wrap and annotate macros only, printing the injected annotations or writing them into struct tags",
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}

			res, err := annotate.Annotate(c.Context(), opts, write)
			if err != nil {
				return err
			}

			printDiagnostics(res.Diagnostics)
			for _, ch := range res.Changes {
				fmt.Printf("%s: %s.%s +%s\n", ch.Pos, ch.Decl, ch.Field, strings.Join(ch.Added, ",+"))
			}
			for _, f := range res.Written {
				pterm.Success.Println("annotated " + f)
			}
			return res.Diagnostics.Err()
		},
	}
	annotateCmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite struct tags of Go sources in place")

	return annotateCmd
}
