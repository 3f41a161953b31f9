package cmd

import (
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cmmoran/recordgen/pkg/action/generate"
)

func init() {
	rootCmd.AddCommand(NewGenerateCommand())
}

func NewGenerateCommand() *cobra.Command {
	var watch bool

	var generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "generate derived code",
		Long:  "Expand every directive and manifest declaration and write the generated files and lock",
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}

			if watch {
				ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				pterm.Info.Println("watching for changes, press ctrl+c to stop")
				return generate.Watch(ctx, opts, version, func(res *generate.Result, err error) {
					if err != nil {
						printError(err)
						return
					}
					printGenerated(res)
				})
			}

			res, err := generate.Generate(c.Context(), opts, version)
			if err != nil {
				return err
			}
			printGenerated(res)
			return res.Diagnostics.Err()
		},
	}
	generateCmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate whenever sources or manifests change")

	return generateCmd
}

func printGenerated(res *generate.Result) {
	printDiagnostics(res.Diagnostics)
	for _, f := range res.Written {
		pterm.Success.Println("wrote " + f)
	}
	zap.L().Debug("lock saved", zap.String("lock", res.LockPath), zap.Int("entries", len(res.Lock.Entries)))
}
