package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/link-companion-assistant/pkg/config"
	logx "github.com/tanpawarit/link-companion-assistant/pkg/logger"
)

var (
	version = "dev"

	envFile string
	verbose bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lca",
		Short:         "Engine-management support assistant",
		Long:          "Routes support questions through safety, planning, tool lookups and retrieval before composing a cited answer.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configx.SetEnvFile(envFile)
			conf, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return fmt.Errorf("load log config: %w", err)
			}
			if verbose {
				conf.Debug = true
			}
			logx.Init(*conf)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file (default ./.env when present)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newServeCmd(), newAskCmd(), newIndexCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
