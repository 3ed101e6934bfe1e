package cmd

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"nebulafleet.dev/pkg/token"
)

// ExecuteVerifyToken verifies a token value against the hash stored
// for its node.
func ExecuteVerifyToken(args []string) error {
	fs := flag.NewFlagSet("verify-token", flag.ExitOnError)
	nodeID := fs.String("node-id", "", "Node ID to verify the token against (required)")
	tok := fs.String("token", "", "Token value to verify (required)")
	secret := fs.String("secret", getEnv("NEBULAFLEET_TOKEN_HMAC_SECRET", ""), "HMAC secret the token was issued under")
	dbPath := fs.String("db", getEnv("NEBULAFLEET_DB_PATH", "./nebulafleet.db"), "Path to SQLite database")
	verbose := fs.Bool("verbose", false, "Enable verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tok == "" {
		return fmt.Errorf("--token is required")
	}
	if *nodeID == "" {
		return fmt.Errorf("--node-id is required")
	}
	if *secret == "" {
		return fmt.Errorf("--secret is required (or set NEBULAFLEET_TOKEN_HMAC_SECRET)")
	}

	logConfig := zap.NewDevelopmentConfig()
	if !*verbose {
		logConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := logConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	db, err := OpenDatabase(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if !token.FormatValid(*tok) {
		fmt.Println("\n✗ Token verification FAILED")
		fmt.Println("  Reason: token does not match the expected wire format")
		return fmt.Errorf("token verification failed")
	}

	rows, err := db.Query(`SELECT hash, is_active FROM tokens WHERE node_id = ?`, *nodeID)
	if err != nil {
		return fmt.Errorf("query tokens for node: %w", err)
	}
	defer rows.Close()

	fmt.Printf("\nVerifying token for node: %s\n", *nodeID)
	fmt.Println("=====================================")

	for rows.Next() {
		var hash string
		var isActive bool
		if err := rows.Scan(&hash, &isActive); err != nil {
			return fmt.Errorf("scan token row: %w", err)
		}
		if token.Validate(*tok, *secret, hash) {
			fmt.Println("\n✓ Token verification SUCCESSFUL")
			fmt.Printf("  Matched an %s token for node %s\n", activeLabel(isActive), *nodeID)
			logger.Info("token verified", zap.String("node_id", *nodeID), zap.Bool("is_active", isActive))
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate token rows: %w", err)
	}

	fmt.Println("\n✗ Token verification FAILED")
	fmt.Println("  Reason: no stored token for this node matches the provided value")
	logger.Error("token verification failed", zap.String("node_id", *nodeID))
	return fmt.Errorf("token verification failed")
}

func activeLabel(isActive bool) string {
	if isActive {
		return "active"
	}
	return "inactive"
}
