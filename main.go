package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/sarcpack/internal/config"
	"github.com/ossyrian/sarcpack/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:               "sarcpack",
	Short:             "List, extract, and create SARC archives",
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stderr and file)")

	extractCmd.Flags().StringP("output-dir", "d", ".", "directory to extract entries into")

	createCmd.Flags().StringP("output", "o", "", "path of the archive to create (required)")
	createCmd.MarkFlagRequired("output")
	createCmd.Flags().String("endian", "little", "byte order of the created archive (little, big)")
	createCmd.Flags().Bool("legacy", false, "legacy alignment mode for games without a resource system")
	createCmd.Flags().Int("min-alignment", 0, "minimum data alignment (power of two, 0 for format default)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.PersistentFlags().Lookup("log-output-dir"))
	viper.BindPFlag("output_dir", extractCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("output", createCmd.Flags().Lookup("output"))
	viper.BindPFlag("endian", createCmd.Flags().Lookup("endian"))
	viper.BindPFlag("legacy", createCmd.Flags().Lookup("legacy"))
	viper.BindPFlag("min_alignment", createCmd.Flags().Lookup("min-alignment"))

	rootCmd.AddCommand(listCmd, extractCmd, createCmd)
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sarcpack"))
		}
		viper.AddConfigPath("/etc/sarcpack")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("SARCPACK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setup materializes the configuration and logging for every subcommand
func setup(cmd *cobra.Command, args []string) error {
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
