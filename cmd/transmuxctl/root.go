package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowreel/transmux/internal/config"
)

var (
	cfgFile      string
	loadedConfig *config.Config
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transmuxctl",
		Short: "Drive the media segment transmuxer core from the command line",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.Logging.Level = lvl
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			loadedConfig = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "override logging.level")
	_ = viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newProbeCmd())

	return cmd
}

func defaultLoggingConfig() config.LoggingConfig {
	return config.LoggingConfig{Level: "info", Format: "text"}
}
