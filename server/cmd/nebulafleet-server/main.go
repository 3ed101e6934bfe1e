// Package main provides the NebulaFleet control plane server.
//
// This is the main entrypoint for the nebulafleet-server binary, which
// runs the control plane HTTP API for managing a Nebula overlay fleet.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	_ "modernc.org/sqlite"

	"nebulafleet.dev/server/internal/api"
	"nebulafleet.dev/server/internal/certmanager"
	"nebulafleet.dev/server/internal/ipalloc"
	"nebulafleet.dev/server/internal/metrics"
	"nebulafleet.dev/server/internal/nebulacert"
	"nebulafleet.dev/server/internal/repository"
	"nebulafleet.dev/server/internal/scheduler"
)

// Config holds server configuration from flags and environment variables.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080").
	ListenAddr string

	// DatabasePath is the path to the SQLite database file.
	DatabasePath string

	// TokenHMACSecret signs issued node bearer tokens.
	TokenHMACSecret string

	// TokenPrefix is prepended to every generated token value.
	TokenPrefix string

	// NebulaCertBinaryPath overrides the nebula-cert executable location.
	NebulaCertBinaryPath string

	// ManagedNebulaVersion gates v2 CA creation (requires >= 1.10.0).
	ManagedNebulaVersion string

	// NebulaVersion is the Nebula release this binary itself embeds.
	NebulaVersion string

	// CertScratchRoot is the directory nebula-cert invocations run in.
	CertScratchRoot string

	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string

	// LogFormat is the log format (json, console).
	LogFormat string

	// AllowOrigins is comma-separated list of allowed CORS origins.
	AllowOrigins string
}

// parseFlags parses command-line flags and environment variables.
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.ListenAddr, "listen", getEnv("NEBULAFLEET_LISTEN_ADDR", ":8080"),
		"Address to listen on")
	flag.StringVar(&config.DatabasePath, "db", getEnv("NEBULAFLEET_DB_PATH", "./nebulafleet.db"),
		"Path to SQLite database file")
	flag.StringVar(&config.TokenHMACSecret, "token-secret", getEnv("NEBULAFLEET_TOKEN_HMAC_SECRET", ""),
		"HMAC secret for node token hashing (required, min 32 bytes)")
	flag.StringVar(&config.TokenPrefix, "token-prefix", getEnv("NEBULAFLEET_TOKEN_PREFIX", "mnebula_"),
		"Prefix prepended to every issued node token")
	flag.StringVar(&config.NebulaCertBinaryPath, "nebula-cert-path", getEnv("NEBULAFLEET_NEBULA_CERT_PATH", ""),
		"Path to the nebula-cert binary (defaults to PATH lookup)")
	flag.StringVar(&config.ManagedNebulaVersion, "managed-nebula-version", getEnv("NEBULAFLEET_MANAGED_NEBULA_VERSION", "1.9.5"),
		"Nebula release this control plane manages clients against")
	flag.StringVar(&config.NebulaVersion, "nebula-version", getEnv("NEBULAFLEET_NEBULA_VERSION", "0.1.0"),
		"This control plane binary's own release version")
	flag.StringVar(&config.CertScratchRoot, "cert-scratch-dir", getEnv("NEBULAFLEET_CERT_SCRATCH_DIR", ""),
		"Directory for nebula-cert scratch work (defaults to os.TempDir)")
	flag.StringVar(&config.LogLevel, "log-level", getEnv("NEBULAFLEET_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	flag.StringVar(&config.LogFormat, "log-format", getEnv("NEBULAFLEET_LOG_FORMAT", "console"),
		"Log format (json, console)")
	flag.StringVar(&config.AllowOrigins, "cors-origins", getEnv("NEBULAFLEET_CORS_ORIGINS", ""),
		"Comma-separated list of allowed CORS origins (* for all)")

	flag.Parse()

	return config
}

// getEnv retrieves an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// validateConfig validates the server configuration.
func validateConfig(config *Config) error {
	if config.TokenHMACSecret == "" {
		return fmt.Errorf("token HMAC secret is required (set NEBULAFLEET_TOKEN_HMAC_SECRET or use -token-secret flag)")
	}
	if len(config.TokenHMACSecret) < 32 {
		return fmt.Errorf("token HMAC secret must be at least 32 bytes (got %d)", len(config.TokenHMACSecret))
	}
	return nil
}

// setupLogger creates a Zap logger based on configuration.
func setupLogger(config *Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", config.LogLevel, err)
	}

	var zapConfig zap.Config
	if config.LogFormat == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// openDatabase opens a connection to the SQLite database and bootstraps
// the schema.
func openDatabase(path string, logger *zap.Logger) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := repository.Bootstrap(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	logger.Info("database connection established", zap.String("path", path))
	return db, nil
}

// parseCORSOrigins parses the comma-separated CORS origins string.
func parseCORSOrigins(origins string) []string {
	if origins == "" {
		return nil
	}

	parts := strings.Split(origins, ",")
	var result []string
	for _, origin := range parts {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func main() {
	config := parseFlags()

	if err := validateConfig(config); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := setupLogger(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting nebulafleet-server",
		zap.String("version", config.NebulaVersion),
		zap.String("listen_addr", config.ListenAddr),
		zap.String("log_level", config.LogLevel),
		zap.String("managed_nebula_version", config.ManagedNebulaVersion),
	)

	metrics.MustInit()

	db, err := openDatabase(config.DatabasePath, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	settings := repository.NewSettingsRepository(db)
	if err := settings.EnsureGlobalSettings(context.Background()); err != nil {
		logger.Fatal("failed to bootstrap global settings", zap.Error(err))
	}

	globalSettings, err := settings.GetGlobalSettings(context.Background())
	if err != nil {
		logger.Fatal("failed to load global settings", zap.Error(err))
	}
	ipPools := repository.NewIPPoolRepository(db)
	ipGroups := repository.NewIPGroupRepository(db)
	ipAssignments := repository.NewIPAssignmentRepository(db)
	ipAlloc := ipalloc.New(ipPools, ipGroups, ipAssignments, func() string { return uuid.New().String() })
	defaultPool, err := ipAlloc.EnsureDefaultPool(context.Background(), globalSettings.DefaultCIDRPool)
	if err != nil {
		logger.Fatal("failed to ensure default ip pool", zap.Error(err))
	}
	backfilled, err := ipAlloc.BackfillLegacyAssignments(context.Background(), defaultPool)
	if err != nil {
		logger.Fatal("failed to backfill legacy ip assignments", zap.Error(err))
	}
	if backfilled > 0 {
		logger.Info("backfilled legacy ip assignments", zap.Int("count", backfilled))
	}

	cas := repository.NewCARepository(db)
	hostCerts := repository.NewHostCertRepository(db)
	cert := &nebulacert.Runner{BinaryPath: config.NebulaCertBinaryPath}
	newID := func() string { return uuid.New().String() }
	certs := certmanager.New(db, cas, hostCerts, cert, logger, certmanager.Config{
		CADefaultValidityDays:  365,
		CAOverlapDays:          30,
		CARotateAtDays:         335,
		ClientCertValidityDays: 90,
		ManagedNebulaVersion:   config.ManagedNebulaVersion,
		ScratchRoot:            config.CertScratchRoot,
	}, newID, nil)

	sched := scheduler.New(certs, logger)
	schedCtx, cancelSched := context.WithCancel(context.Background())
	go sched.Run(schedCtx)

	router := api.SetupRouter(&api.RouterConfig{
		DB:                   db,
		Logger:               logger,
		TokenHMACSecret:      config.TokenHMACSecret,
		TokenPrefix:          config.TokenPrefix,
		NebulaCertBinaryPath: config.NebulaCertBinaryPath,
		NebulaVersion:        config.NebulaVersion,
		CertManager: certmanager.Config{
			CADefaultValidityDays:  365,
			CAOverlapDays:          30,
			CARotateAtDays:         335,
			ClientCertValidityDays: 90,
			ManagedNebulaVersion:   config.ManagedNebulaVersion,
			ScratchRoot:            config.CertScratchRoot,
		},
		AllowOrigins: parseCORSOrigins(config.AllowOrigins),
	})

	logger.Info("server listening", zap.String("addr", config.ListenAddr))
	server := &http.Server{
		Addr:    config.ListenAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received, stopping server")
	cancelSched()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
