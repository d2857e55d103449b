package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helioscrm/dynlogic/internal/core/api"
	"github.com/helioscrm/dynlogic/internal/core/auth"
	"github.com/helioscrm/dynlogic/internal/core/config"
	"github.com/helioscrm/dynlogic/internal/core/db"
	"github.com/helioscrm/dynlogic/internal/core/metrics"
	"github.com/helioscrm/dynlogic/internal/core/server"
	"github.com/helioscrm/dynlogic/internal/logic"
	"github.com/helioscrm/dynlogic/internal/metadata"
)

const Version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dynamic-logic HTTP service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	serveCmd.Flags().Int("port", 8480, "HTTP server port")
	serveCmd.Flags().String("metadata-file", "", "metadata file to watch (.json, .yaml)")
	serveCmd.Flags().Bool("auth-disabled", false, "disable API key authentication (development only)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("metadata-file") {
		cfg.MetadataFile, _ = cmd.Flags().GetString("metadata-file")
	}
	if cmd.Flags().Changed("auth-disabled") {
		cfg.AuthDisabled, _ = cmd.Flags().GetBool("auth-disabled")
	}

	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	var migrationID string
	checkQuery := `SELECT migration_id FROM migrations WHERE migration_id = '001_initial_schema.sql'`
	err = database.Get(&migrationID, database.Rebind(checkQuery))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("migration 001_initial_schema not applied - run 'dynlogic migrate' first")
		}
		return fmt.Errorf("failed to check migrations: %w", err)
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	m := metrics.New("dynlogic")
	resolver := logic.NewResolver(m.ResolverHooks())

	store := metadata.NewStore(queries)
	ruleSets, err := store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rule sets: %w", err)
	}
	resolver.ReplaceAll(ruleSets)
	logger.Info("rule sets loaded from database", "entities", len(ruleSets))

	// A watched metadata file layers on top of the database: its rule sets
	// are installed per entity on every reload, useful for seeding dev
	// environments from a checked-in document.
	if cfg.MetadataFile != "" {
		watcher, err := metadata.NewWatcher(cfg.MetadataFile, logger, func(doc metadata.Document) {
			for entityType, rs := range doc.RuleSets() {
				resolver.SetRuleSet(entityType, rs)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to create metadata watcher: %w", err)
		}
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logger.Error("metadata watcher stopped", "error", err)
			}
		}()
	}

	var authMW server.Middleware
	if cfg.AuthDisabled {
		logger.Warn("API key authentication disabled")
	} else {
		secrets, err := config.HMACSecrets()
		if err != nil {
			return fmt.Errorf("failed to load HMAC secrets: %w", err)
		}
		if len(secrets) == 0 {
			return fmt.Errorf("no HMAC secrets configured (set DL_HMAC_SECRET environment variable)")
		}
		authMW = auth.NewAuthenticator(secrets, queries).Middleware
	}

	service := api.NewService(resolver, store, m, logger, cfg.ValidationPolicy)
	srv := server.New(cfg, logger, service, resolver, m, authMW)

	logger.Info("starting dynlogic", "version", Version, "host", cfg.Host, "port", cfg.Port)
	return srv.Start(ctx)
}
