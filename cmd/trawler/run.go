package main

import (
	"os"

	"github.com/aretw0/trawler/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Run a workflow script and print the collected state",
	Long: `Executes every task of a YAML or JSON script against the configured driver.
The state tree is printed as JSON on stdout, also when the workflow halts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if kind, _ := cmd.Flags().GetString("driver"); kind != "" {
			cfg.Driver.Kind = kind
		}
		if fixtures, _ := cmd.Flags().GetString("fixtures"); fixtures != "" {
			cfg.Driver.Fixtures = fixtures
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		stack, err := cli.Build(sc, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := stack.Close(); err != nil {
				logger.Error("failed to close driver", "err", err)
			}
		}()

		out, _ := cmd.Flags().GetString("out")
		save, _ := cmd.Flags().GetString("save")
		err = cli.Run(sc, stack, cli.RunOptions{
			ScriptPath: args[0],
			Out:        out,
			SaveID:     save,
		}, os.Stdout)
		if sig := sc.Signal(); sig != nil {
			logger.Warn("interrupted", "signal", sig.String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("out", "", "Also write the state tree to this file")
	runCmd.Flags().String("save", "", "Save the result in the configured store under this ID")
	runCmd.Flags().String("driver", "", "Override the driver kind: 'chrome' or 'memory'")
	runCmd.Flags().String("fixtures", "", "Fixture file for the memory driver")
}
