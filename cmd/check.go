package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cmmoran/recordgen/pkg/action/check"
)

func init() {
	rootCmd.AddCommand(NewCheckCommand())
}

func NewCheckCommand() *cobra.Command {
	var showDiff bool

	var checkCmd = &cobra.Command{
		Use:   "check",
		Short: "verify generated files are up to date",
		Long:  "Regenerate in memory and compare with the files on disk and the generation lock",
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}

			report, err := check.Check(c.Context(), opts, version)
			if err != nil {
				return err
			}

			printDiagnostics(report.Diagnostics)
			for _, d := range report.Drift {
				pterm.Warning.Println(d.File + ": " + d.Reason)
				if showDiff && d.Diff != "" {
					fmt.Println(d.Diff)
				}
			}
			if report.Clean() {
				pterm.Success.Println("generated files are up to date")
			}
			return report.Err()
		},
	}
	checkCmd.Flags().BoolVarP(&showDiff, "diff", "d", false, "print a diff for modified files (-disk +generated)")

	return checkCmd
}
