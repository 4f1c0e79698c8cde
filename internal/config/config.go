package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/janus.db"

	// Admin API auth
	JWTSecret   string
	JWTTTLHours int

	// Keycard assignment flow
	ScanTimeoutMinutes int // how long a pending assignment session stays valid

	// Scan-session retention
	SessionRetentionHours int // 0 = keep forever
	PruneIntervalHours    int // how often the pruner runs (default 6)
}

func FromEnv() Config {
	addr := getenvDefault("JANUS_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("JANUS_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("JANUS_DB_PATH", "./data/janus.db")

	jwtSecret := getenvDefault("JANUS_JWT_SECRET", "")
	jwtTTL := getenvInt("JANUS_JWT_TTL_HOURS", 12)

	scanTimeout := getenvInt("JANUS_SCAN_TIMEOUT_MINUTES", 2)
	if scanTimeout == 0 {
		scanTimeout = 2
	}

	retentionHours := getenvInt("JANUS_SESSION_RETENTION_HOURS", 24)
	pruneInterval := getenvInt("JANUS_PRUNE_INTERVAL_HOURS", 6)

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		JWTSecret:   jwtSecret,
		JWTTTLHours: jwtTTL,

		ScanTimeoutMinutes: scanTimeout,

		SessionRetentionHours: retentionHours,
		PruneIntervalHours:    pruneInterval,
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
