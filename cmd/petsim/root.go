package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces every setting in the environment, e.g.
// PETSIM_ADMIN_KEY or PETSIM_DATA_DIR.
const envPrefix = "PETSIM"

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "petsim",
		Short:         "Etherpets farm simulation",
		Long:          "petsim runs a farm of roaming pets that pair up when they wander close, walk to meet, talk for a while and then show an emotion.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadSettings(v); err != nil {
				return err
			}
			setupLogging(v.GetString("log-level"))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("settings", "", "settings file (toml, yaml or json) providing defaults for any flag")
	flags.String("tuning", "", "tuning.yaml overriding the stock simulation constants")
	flags.String("roster", "", "roster.toml listing the pets (default: built-in roster)")
	flags.Int64("seed", 0, "random seed (0 = draw one)")
	flags.String("map-csv", "", "collision layer CSV exported from the map editor (default: generated farm)")
	flags.String("spawn-csv", "", "spawn layer CSV paired with --map-csv")
	flags.IntSlice("collision", []int{0}, "tile indices of the collision layer that block movement")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	_ = v.BindPFlags(flags)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(
		newRunCmd(v),
		newRosterCmd(v),
		newMapCmd(v),
	)
	return rootCmd
}

// loadSettings reads the optional settings file. Flags and environment
// variables still win over it.
func loadSettings(v *viper.Viper) error {
	path := v.GetString("settings")
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
}
