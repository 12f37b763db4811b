// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/imago-dev/imago/internal/config"

	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the imago configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show prints the effective configuration after merging the config
file (if any) over built-in defaults, and where it was loaded from.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path imago looks for",
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	loaded, path, err := config.Load(context.Background(), config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return failWithIssue(cmd.ErrOrStderr(), err)
	}

	stdout := cmd.OutOrStdout()

	source := "defaults"
	if path != "" {
		source = path
	}
	fmt.Fprintln(stdout, TitleStyle.Render("Configuration")+SubtitleStyle.Render(" ("+source+")"))
	fmt.Fprintf(stdout, "  container_engine: %s\n", loaded.ContainerEngine)

	cacheDir := string(loaded.CacheDir)
	if cacheDir == "" {
		if def, derr := config.DefaultCacheDir(); derr == nil {
			cacheDir = def + SubtitleStyle.Render(" (default)")
		}
	}
	fmt.Fprintf(stdout, "  cache_dir:        %s\n", cacheDir)
	fmt.Fprintf(stdout, "  tag_prefix:       %s\n", loaded.TagPrefix)
	fmt.Fprintf(stdout, "  concurrency:      %d\n", loaded.Concurrency)
	fmt.Fprintf(stdout, "  verbose:          %t\n", loaded.Verbose)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if cfgFile != "" {
		fmt.Fprintln(cmd.OutOrStdout(), cfgFile)
		return nil
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return failWithIssue(cmd.ErrOrStderr(), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}
