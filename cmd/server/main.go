package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/projectflow/backend/internal/config"
	"github.com/projectflow/backend/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "projectflow",
	Short:         "ProjectFlow project and issue tracking backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Overload(); err != nil {
			logger.Debug().Msg("no .env file, skipping")
		}

		if configPath == "" {
			configPath = os.Getenv("CONFIG_PATH")
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Init(cfg.Log.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, createSuperuserCmd, cleanupLogsCmd, initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("%v", err)
	}
}
