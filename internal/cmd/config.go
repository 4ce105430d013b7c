package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskdist/taskdist/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify taskdist configuration",
	Long: `View or modify taskdist configuration.

Without arguments, displays the current configuration.
Use subcommands to create or edit the config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/taskdist/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $EDITOR",
	Long: `Open the config file in the editor named by the EDITOR environment
variable (default: vi). The file is created with defaults first if it
does not exist yet.`,
	RunE: runConfigEdit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println("Current configuration:")
	fmt.Println()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Config file: (none - using defaults)\n")
	}
	fmt.Println()

	fmt.Printf("workers: %d\n", cfg.Workers)
	fmt.Println("logging:")
	fmt.Printf("  level: %s\n", cfg.Logging.Level)
	fmt.Printf("  dir: %s\n", cfg.Logging.Dir)
	fmt.Println("taskfiles:")
	fmt.Printf("  dir: %s\n", cfg.Taskfiles.Dir)

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Println(config.ConfigFile())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'taskdist config edit' to modify it", configFile)
	}

	if err := writeDefaultConfig(configFile); err != nil {
		return err
	}

	fmt.Printf("Created config file at %s\n", configFile)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	// Create the file with defaults first so the editor has something to open
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := writeDefaultConfig(configFile); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	edit := exec.Command(editor, configFile)
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	if err := edit.Run(); err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}
	return nil
}

func writeDefaultConfig(configFile string) error {
	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configContent := `# Taskdist configuration

# Number of worker goroutines draining the run queue.
# A value of 0 queues tasks but never runs them.
workers: 4

logging:
  # Log level: debug, info, warn, error
  level: info
  # Directory for the log file. Empty means log to stderr.
  dir: ""

taskfiles:
  # Directory scanned for taskfiles (*.toml, *.yaml, *.yml) at startup
  dir: taskfiles
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
