// Package cmd implements the splitbook CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/splitbook/splitbook/pkg/logging"
)

var (
	configFile string

	// Version is the build version set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "splitbook",
	Short: "Royalty statement reconciliation CLI",
	Long: `Splitbook reconciles royalty-statement line items against a catalog
of tracked works, computing each eligible writer's revenue share per line.

Statement batches are consumed as already-parsed YAML; the catalog is read
from a YAML seed file or a SQLite database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute(version, commit string) {
	Version = version
	Commit = commit
	rootCmd.Version = version

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default .splitbook.yaml)")
	rootCmd.PersistentFlags().String("catalog", "", "catalog seed YAML file")
	rootCmd.PersistentFlags().String("db", "", "catalog SQLite database path")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "emit JSON instead of tables")

	for _, flag := range []string{"catalog", "db", "log-level", "json"} {
		_ = viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	}
}

// initConfig loads configuration in order of precedence: flags, env,
// .env files, config file, defaults.
func initConfig() {
	_ = godotenv.Load()

	viper.SetEnvPrefix("SPLITBOOK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".splitbook")
	}
	_ = viper.ReadInConfig()

	if level := viper.GetString("log-level"); level != "" {
		logging.Configure(level)
	}
}
