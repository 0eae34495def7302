// Package config loads runtime configuration from environment
// variables.  Required values are enforced at startup; a misconfigured
// instance refuses to boot instead of limping.
package config

import (
    "log"
    "os"
    "strconv"
)

// Config holds every runtime setting the server needs.
type Config struct {
    Env  string // "dev", "test" or "prod"
    Port string // HTTP port to listen on

    DBUser string
    DBPass string // empty allowed
    DBHost string
    DBPort string
    DBName string

    JWTSecret string // must match the identity provider's signing key

    BlobRoot    string // directory the blob store is rooted at
    BlobBaseURL string // public base URL prefixed onto image and signed links
    BlobSecret  string // HMAC key for signed document URLs

    RatePerMinute int // per-user request cap; 0 disables
}

// Load reads the configuration.  Missing required variables are fatal.
func Load() Config {
    return Config{
        Env:           must("APP_ENV"),
        Port:          must("APP_PORT"),
        DBUser:        must("DB_USER"),
        DBPass:        os.Getenv("DB_PASS"),
        DBHost:        must("DB_HOST"),
        DBPort:        must("DB_PORT"),
        DBName:        must("DB_NAME"),
        JWTSecret:     must("JWT_SECRET"),
        BlobRoot:      must("BLOB_ROOT"),
        BlobBaseURL:   must("BLOB_BASE_URL"),
        BlobSecret:    must("BLOB_SECRET"),
        RatePerMinute: optionalInt("RATE_LIMIT_PER_MINUTE", 120),
    }
}

// must retrieves a required environment variable or exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// optionalInt reads an integer variable, falling back when unset.  A
// set-but-malformed value is fatal rather than silently defaulted.
func optionalInt(key string, fallback int) int {
    s, ok := os.LookupEnv(key)
    if !ok || s == "" {
        return fallback
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
