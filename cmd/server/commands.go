package main

import (
	"fmt"

	"github.com/projectflow/backend/internal/config"
	"github.com/projectflow/backend/internal/services"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		fmt.Println("Migrations applied")
		return nil
	},
}

var createSuperuserCmd = &cobra.Command{
	Use:   "create-superuser",
	Short: "Create a superuser account unless the email is already taken",
	RunE: func(cmd *cobra.Command, args []string) error {
		admin := cfg.Admin
		if v, _ := cmd.Flags().GetString("email"); v != "" {
			admin.Email = v
		}
		if v, _ := cmd.Flags().GetString("password"); v != "" {
			admin.Password = v
		}
		if v, _ := cmd.Flags().GetString("full-name"); v != "" {
			admin.FullName = v
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		user, created, err := services.EnsureSuperuser(cmd.Context(), db, &admin)
		if err != nil {
			return err
		}
		if !created {
			fmt.Printf("User %s already exists\n", user.Email)
			return nil
		}
		fmt.Printf("Superuser %s created\n", user.Email)
		return nil
	},
}

var cleanupLogsCmd = &cobra.Command{
	Use:   "cleanup-logs",
	Short: "Delete system log rows older than the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("retention-days")
		if days == 0 {
			days = cfg.Log.RetentionDays
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		deleted, err := services.NewSystemLogService(db).CleanupOldLogs(cmd.Context(), days)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d log entries older than %d days\n", deleted, days)
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write the default configuration to a YAML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Printf("Default configuration written to %s\n", path)
		return nil
	},
}

func init() {
	createSuperuserCmd.Flags().String("email", "", "superuser email (default admin.email)")
	createSuperuserCmd.Flags().String("password", "", "superuser password (default admin.password)")
	createSuperuserCmd.Flags().String("full-name", "", "superuser display name")

	cleanupLogsCmd.Flags().Int("retention-days", 0, "days to keep (default log.retention_days)")
}
