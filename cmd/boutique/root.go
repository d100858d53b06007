package main

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Skotchmaster/boutique/pkg/config"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

// loadConfig reads the env file, then the environment, then flag overrides.
func loadConfig() (config.Config, error) {
	if path := viper.GetString("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, err
		}
	}

	cfg := config.Load()
	if v := viper.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := viper.GetInt("port"); v > 0 {
		cfg.ServerPort = v
	}
	if v := viper.GetString("db-driver"); v != "" {
		cfg.DatabaseDriver = v
	}
	if v := viper.GetString("db-url"); v != "" {
		cfg.DatabaseURL = v
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	return logger
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "boutique",
		Short:         "Catalog, inventory and order server for a boutique",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().String("log-level", "", "log level: debug|info|warn|error")
	root.PersistentFlags().String("db-driver", "", "database driver: postgres|pq|sqlite")
	root.PersistentFlags().String("db-url", "", "database DSN")

	_ = viper.BindPFlag("env-file", root.PersistentFlags().Lookup("env-file"))
	_ = viper.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("db-driver", root.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag("db-url", root.PersistentFlags().Lookup("db-url"))

	root.AddCommand(newServeCmd(), newMigrateCmd(), newHashPasswordCmd())
	return root
}
