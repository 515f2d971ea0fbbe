package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"estate/server/config"
)

var (
	envFile string
	cfg     *config.Config
	logger  *logrus.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Real-estate property and offer workflow server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err = newLogger(cfg.Log.Level, cfg.Log.Format)
			return err
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file to load before the environment")

	root.AddCommand(serveCmd(), migrateCmd())
	if err := root.Execute(); err != nil {
		if logger != nil {
			logger.WithError(err).Error("Command failed")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func newLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	switch format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}
