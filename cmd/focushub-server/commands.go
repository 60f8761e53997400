package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/vjfocus/focushub/pkg/focushub/config"
	"github.com/vjfocus/focushub/pkg/focushub/database"
	"github.com/vjfocus/focushub/pkg/focushub/logging"
	"github.com/vjfocus/focushub/pkg/focushub/models"
	"github.com/vjfocus/focushub/pkg/focushub/server"
)

const (
	flagPort        = "port"
	flagDBDriver    = "db-driver"
	flagDatabaseURL = "database-url"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "focushub-server [command]",
		Short: "FocusHub collaboration API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String(flagDBDriver, "", "Database driver: sqlite, postgres or mysql (overrides DB_DRIVER)")
	cmd.PersistentFlags().String(flagDatabaseURL, "", "Database DSN or sqlite file (overrides DATABASE_URL)")

	cmd.AddCommand(newServeCommand(), newMigrateCommand(), newVersionCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			if cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, db, log).Run(ctx)
		},
	}
	cmd.Flags().String(flagPort, "", "Port to listen on (overrides PORT)")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			closeDB(db, log)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildVersion)
			return err
		},
	}
}

// bootstrap loads configuration, applies flag overrides, opens the store
// and migrates it.
func bootstrap(cmd *cobra.Command) (*config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, nil, nil, err
	}
	if buildVersion != "dev" {
		cfg.App.Version = buildVersion
	}

	log := logging.New(string(cfg.App.Environment), cfg.App.LogLevel, os.Stdout)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		closeDB(db, log)
		return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	log.WithField("driver", cfg.Database.Driver).Info("database migrations completed")

	return cfg, log, db, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	overrides := map[string]*string{
		flagPort:        &cfg.HTTP.Port,
		flagDBDriver:    &cfg.Database.Driver,
		flagDatabaseURL: &cfg.Database.URL,
	}
	for name, target := range overrides {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		*target = flag.Value.String()
	}
	return cfg.Validate()
}

func closeDB(db *gorm.DB, log logrus.FieldLogger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("close database")
	}
}
