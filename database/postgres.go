package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

// PoolConfig holds database connection pool configuration
type PoolConfig struct {
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	PingTimeout     time.Duration `json:"ping_timeout"`
}

// DefaultPoolConfig returns the pool settings used by Connect
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Connect opens the prediction log database with the default pool settings
func Connect(dbURL string) (*sql.DB, error) {
	return ConnectWithConfig(dbURL, DefaultPoolConfig())
}

// ConnectWithConfig opens and pings the database
func ConnectWithConfig(dbURL string, config *PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"max_open_conns":     config.MaxOpenConns,
		"max_idle_conns":     config.MaxIdleConns,
		"conn_max_lifetime":  config.ConnMaxLifetime,
		"conn_max_idle_time": config.ConnMaxIdleTime,
	}).Info("Connected to database successfully")

	return db, nil
}

// Close closes the connection pool if one is open
func Close(db *sql.DB) {
	if db != nil {
		db.Close()
		logrus.Info("Database connection closed")
	}
}

// HealthCheck pings the database and logs pool statistics
func HealthCheck(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not established")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	stats := db.Stats()
	logrus.WithFields(logrus.Fields{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
	}).Debug("Database connection pool health check")

	return nil
}

// Migrate applies the embedded schema. Statements that fail are logged and
// skipped so re-running against an existing schema is harmless.
func Migrate(ctx context.Context, db *sql.DB) error {
	return MigrateContent(ctx, db, schemaSQL)
}

// MigrateContent applies the statements in content
func MigrateContent(ctx context.Context, db *sql.DB, content string) error {
	if db == nil {
		return fmt.Errorf("database connection not established")
	}

	applied := 0
	for _, stmt := range parseSQLStatements(content) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logrus.Warnf("Migration statement failed (continuing): %v", err)
			continue
		}
		applied++
	}

	logrus.WithField("statements", applied).Info("Database migration completed successfully")
	return nil
}

// parseSQLStatements splits a script on statement-terminating semicolons,
// skipping blank and comment-only lines
func parseSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)

		if strings.HasSuffix(line, ";") {
			stmt := strings.TrimSpace(strings.TrimSuffix(current.String(), ";"))
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
