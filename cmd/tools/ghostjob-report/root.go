package main

import (
	"github.com/spf13/cobra"

	"ghostjob-workers/internal/common/config"
	"ghostjob-workers/internal/common/logger"
)

const app = "ghostjob-report"

// Actual version can be specified in build command.
var version = "unknown"

type rootOptions struct {
	configFile string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           app,
		Short:         "Inspect the ghost-job posting history and activity registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")

	root.AddCommand(
		newCompaniesCmd(opts),
		newRegistryCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configFile != "" {
		return config.LoadFromFile(o.configFile)
	}
	return config.Load()
}

func (o *rootOptions) logger() logger.Logger {
	level := "warn"
	if o.debug {
		level = "debug"
	}
	return logger.NewZapAdapter(logger.New(level, "console", "stderr"))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s version: %s\n", app, version)
		},
	}
}
