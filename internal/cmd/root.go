// Package cmd wires the taskdist command-line interface: the root command,
// the run loop, and the config helpers.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskdist/taskdist/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "taskdist",
	Short: "Background shell task runner",
	Long: `Taskdist loads declared shell-command pipelines from a taskfile
directory and distributes them across a fixed pool of workers. Each task
runs its commands in order, with configurable repetition, failure
tolerance, and intra-task parallelism.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/taskdist/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TASKDIST")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TASKDIST_TASKFILES_DIR for taskfiles.dir
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
