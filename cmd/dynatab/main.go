package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mzyy94/dynatab/internal/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type globalFlags struct {
	logLevel string
	dataDir  string
}

func main() {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:   "dynatab",
		Short: "Decode and validate the RGB pixel-matrix HID protocol",
		Long: `dynatab decodes captured HID SET_REPORT payloads sent to a 60x9 RGB
LED matrix, reconstructs pictures and animations, and reports every
protocol anomaly it finds.

Input is one payload per line in hex (as exported from a USB capture)
or a binary raw log written by "dynatab encode --raw".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := config.ParseLogLevel(config.EnvStr(config.EnvLogLevel, g.logLevel))
			if cmd.Flags().Changed("log-level") {
				level = config.ParseLogLevel(g.logLevel)
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error); env "+config.EnvLogLevel)
	rootCmd.PersistentFlags().StringVar(&g.dataDir, "data-dir", os.Getenv(config.EnvDataDir), "Settings directory (memory only when empty); env "+config.EnvDataDir)

	rootCmd.AddCommand(
		decodeCmd(&g),
		encodeCmd(&g),
		serveCmd(&g),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// loadSettings opens the settings store and applies environment overrides.
func loadSettings(g *globalFlags) (*config.Store, config.Settings, error) {
	store := config.NewMemoryStore()
	if g.dataDir != "" {
		var err error
		store, err = config.NewStore(g.dataDir)
		if err != nil {
			return nil, config.Settings{}, fmt.Errorf("open settings: %w", err)
		}
	}
	s := config.ApplyEnv(store.Get())
	if err := s.Validate(); err != nil {
		return nil, config.Settings{}, fmt.Errorf("settings: %w", err)
	}
	return store, s, nil
}
