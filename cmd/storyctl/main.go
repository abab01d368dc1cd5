package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile, logLevel string

	root := &cobra.Command{
		Use:           "storyctl",
		Short:         "Story administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to load %s: %w", envFile, err)
				}
			}
			initLogger(cmd, logLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with server configuration")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")

	root.AddCommand(newSeedCmd())
	root.AddCommand(newValidateCmd())
	return root
}

// initLogger настраивает zerolog для читаемого вывода в консоль.
func initLogger(cmd *cobra.Command, level string) {
	output := zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	logLevel := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		logLevel = lvl
	}
	zerolog.SetGlobalLevel(logLevel)
}
