// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/version"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate or print the configuration",
	}

	var file string
	validateCmd := &cobra.Command{
		Use:         "validate",
		Short:       "Check a configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := strings.TrimSpace(file)
			if path == "" {
				path = strings.TrimSpace(a.configPath)
			}
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			if _, err := config.NewLoader(path, version.Version).Load(); err != nil {
				return fmt.Errorf("configuration error in %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&file, "file", "f", "", "path to YAML configuration file")

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration (defaults, file and environment merged)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Dump(cmd.OutOrStdout(), a.cfg)
		},
	}

	cmd.AddCommand(validateCmd, dump)
	return cmd
}
