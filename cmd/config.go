package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/msalah0e/mentorgraph/internal/config"
	"github.com/msalah0e/mentorgraph/internal/server"
	"github.com/msalah0e/mentorgraph/internal/ui"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	cmd.AddCommand(configShowCmd(), configInitCmd(), configPathCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
		},
	}
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the user config file",
		Run: func(cmd *cobra.Command, args []string) {
			path := config.Path()
			if force {
				if err := config.Save(config.Default()); err != nil {
					ui.Bad.Printf("  Failed to write %s: %v\n", path, err)
					os.Exit(1)
				}
				ui.Good.Printf("  %s Wrote defaults to %s\n", ui.StatusIcon(true), path)
				return
			}
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("  %s already exists (use --force to overwrite)\n", path)
				return
			}
			if err := config.EnsureExists(); err != nil {
				ui.Bad.Printf("  Failed to write %s: %v\n", path, err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Created %s\n", ui.StatusIcon(true), path)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where configuration, theme and journal live",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("  Config:   %s\n", config.Path())
			fmt.Printf("  Theme:    %s\n", config.ThemePath())
			fmt.Printf("  Activity: %s\n", journal().Path())
			fmt.Printf("  PID file: %s\n", server.PidFile())
		},
	}
}
