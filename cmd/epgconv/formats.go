// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/formats"
	"github.com/ManuGH/epgconv/internal/version"
)

func newFormatsCmd(a *app) *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "Inspect and maintain the format icon table of a channel",
	}
	cmd.PersistentFlags().StringVar(&channel, "channel", "", "channel key (defaults to the configured channel)")

	scan := &cobra.Command{
		Use:   "scan <workbook.xlsx>",
		Short: "Check which formats of a workbook have an icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inspect(a.cfg, channel, args[0])
			if err != nil {
				return err
			}
			printScan(cmd, in.deps.Icons, in.formats)
			return nil
		},
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the icon table as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, _, err := channelTable(a.cfg, channel)
			if err != nil {
				return err
			}
			return writeMapping(cmd.OutOrStdout(), out, table)
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to stdout)")

	addMissing := &cobra.Command{
		Use:   "add-missing <workbook.xlsx>",
		Short: "Map every format without icon to the default icon and export the table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inspect(a.cfg, channel, args[0])
			if err != nil {
				return err
			}
			added := in.deps.Icons.AddMissing(in.formats)
			fmt.Fprintf(cmd.ErrOrStderr(), "added %d formats\n", len(added))
			return writeMapping(cmd.OutOrStdout(), out, in.deps.Icons)
		},
	}
	addMissing.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to stdout)")

	importCmd := &cobra.Command{
		Use:   "import <mapping.json>",
		Short: "Load an exported table and print it as a channel configuration block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, key, err := channelTable(a.cfg, channel)
			if err != nil {
				return err
			}
			// #nosec G304 -- the mapping path is provided by the operator
			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			n, err := table.Import(f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "imported %d formats\n", n)

			ch := a.cfg.Channels[key]
			ch.Icons = table.Icons()
			ch.IconBaseURL = table.BaseURL
			ch.DefaultIcon = table.DefaultIcon
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(map[string]any{"channels": map[string]config.Channel{key: ch}}); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.AddCommand(scan, export, addMissing, importCmd)
	return cmd
}

func channelTable(cfg config.Config, key string) (*formats.Table, string, error) {
	if key == "" {
		key = cfg.Channel
	}
	ch, err := cfg.Lookup(key)
	if err != nil {
		return nil, "", err
	}
	return ch.Table(), key, nil
}

func writeMapping(stdout io.Writer, path string, table *formats.Table) error {
	if path == "" {
		return table.Export(stdout, time.Now(), version.Version)
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err := table.Export(f, time.Now(), version.Version); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
