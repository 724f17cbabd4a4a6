package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fivetwenty-io/fmc-client/cmd/fmc/commands"
	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "fmc",
	Short: "Cisco Firepower Management Center CLI",
	Long: `A command-line interface for the Cisco Firepower Management Center REST API.

It manages policy objects and groups, lists devices and policies, and copies
objects between FMC servers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.fmc/config.yml)")
	rootCmd.PersistentFlags().StringP("url", "u", "", "FMC server URL")
	rootCmd.PersistentFlags().String("username", "", "API username")
	rootCmd.PersistentFlags().String("password", "", "API password (prompted when empty)")
	rootCmd.PersistentFlags().String("domain", "", "domain UUID (default is the login domain)")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("insecure", "k", false, "skip TLS certificate verification")

	// Bind flags to viper
	for _, name := range []string{"config", "url", "username", "password", "domain", "output", "verbose", "insecure"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewInfoCommand())
	rootCmd.AddCommand(commands.NewObjectsCommand())
	rootCmd.AddCommand(commands.NewDevicesCommand())
	rootCmd.AddCommand(commands.NewPoliciesCommand())
	rootCmd.AddCommand(commands.NewTasksCommand())
	rootCmd.AddCommand(commands.NewAuditCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewPurgeCommand())
	rootCmd.AddCommand(commands.NewTablesCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".fmc")
		if err := os.MkdirAll(configDir, constants.ConfigDirPerm); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		// Search config in ~/.fmc/config.yml
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// FMC_URL, FMC_USERNAME, FMC_PASSWORD, ...
	viper.SetEnvPrefix("FMC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
