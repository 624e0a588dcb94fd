package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-intake/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or write configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.WithFlags(cmd.Flags()))
		if err != nil {
			return err
		}
		if cfg.AdminToken != "" {
			cfg.AdminToken = "********"
		}
		raw, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(raw)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to ./intake.yml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.WithFlags(cmd.Flags()))
		if err != nil {
			return err
		}
		path := config.ProjectPath()
		if err := config.WriteProject(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
}
