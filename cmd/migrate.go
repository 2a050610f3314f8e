package cmd

import (
	"context"
	"database/sql"

	"github.com/campuslink/auth-service/config"
	"github.com/campuslink/auth-service/migrations"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := configureLogging(cfg); err != nil {
			return err
		}

		db, err := sql.Open("mysql", cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()

		goose.SetBaseFS(migrations.Migrations)
		if err := goose.SetDialect("mysql"); err != nil {
			return err
		}

		if err := goose.UpContext(context.Background(), db, "."); err != nil {
			return err
		}

		logrus.Info("Migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
