package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ghostjob-workers/pkg/registry"
)

func newRegistryCmd(opts *rootOptions) *cobra.Command {
	var path string

	load := func() (*registry.ActivityRegistry, error) {
		if path == "" {
			cfg, err := opts.loadConfig()
			if err != nil {
				return nil, err
			}
			path = cfg.Registry.Path
		}
		return registry.LoadRegistry(path)
	}

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "registry file (default is registry.path from the config)")

	validate := &cobra.Command{
		Use:   "validate [task-type...]",
		Short: "Check schemas and timeouts, and that the given task types are registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			if err := reg.Validate(args...); err != nil {
				return err
			}
			cmd.Printf("Registry validation passed: %d activities.\n", len(reg.Activities))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TASK TYPE\tCATEGORY\tSTATUS\tTIMEOUT\tVERSION")
			for _, a := range reg.Activities {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.TaskType, a.Category, a.ImplementationStatus, a.Timeout, a.Version)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(validate, list)
	return cmd
}
