package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/helioscrm/dynlogic/internal/core/auth"
	"github.com/helioscrm/dynlogic/internal/core/config"
	"github.com/helioscrm/dynlogic/internal/core/db"
)

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var apiKeyCreateCmd = &cobra.Command{
	Use:   "create <label>",
	Short: "Create an API key",
	Long:  `create generates a new API key signed with the HMAC secret from DL_HMAC_SECRET and stores its hash. The key itself is printed once and never stored.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyCreate,
}

var apiKeyRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyRevoke,
}

func init() {
	rootCmd.AddCommand(apiKeyCmd)
	apiKeyCmd.AddCommand(apiKeyCreateCmd)
	apiKeyCmd.AddCommand(apiKeyRevokeCmd)
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	label := args[0]

	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set DL_HMAC_SECRET environment variable)")
	}

	// Any configured secret works; pick deterministically for reproducible
	// behavior under rotation.
	var secretID string
	for id := range secrets {
		if secretID == "" || id < secretID {
			secretID = id
		}
	}

	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("failed to generate random data: %w", err)
	}

	apiKey := auth.FormatAPIKey(secretID, hex.EncodeToString(randomBytes))
	keyHash := auth.ComputeHMAC(secrets[secretID], apiKey)
	keyID := strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")

	_, err = queries.ExecContext(cmd.Context(), "insert-api-key",
		keyID, keyHash, label, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("key_id: %s\n", keyID)
	fmt.Printf("api_key: %s\n", apiKey)
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	keyID := args[0]

	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	res, err := queries.ExecContext(cmd.Context(), "revoke-api-key", time.Now().UTC(), keyID)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no API key with id %s", keyID)
	}

	fmt.Printf("revoked %s\n", keyID)
	return nil
}
