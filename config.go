package wfaclient

import (
	"errors"
	"time"
)

// Config groups every tunable of the client. Zero values are filled in
// from defaults during [Builder.Build]; after Build the configuration
// is treated as immutable.
type Config struct {
	HTTP    HTTPConfig
	Session SessionConfig
	Catalog CatalogConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig tunes the request layer shared by every call.
type HTTPConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes session restoration behavior.
type SessionConfig struct {
	// VerifyOnRestore controls whether RestoreSession confirms a
	// persisted token against the profile endpoint before the session
	// counts as authenticated. Disabling it clears any orphaned token
	// instead; a bare token is never trusted either way.
	VerifyOnRestore bool
}

/*
====================================
CATALOG CONFIG
====================================
*/

// CatalogConfig tunes listing defaults.
type CatalogConfig struct {
	PageSize      int
	RecentDefault int
	RecentMax     int
	FeaturedLimit int
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the caller when the
	// buffer is full. Dropped counts are observable via
	// [Client.AuditDropped].
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig tunes the in-process metrics registry.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 1 << 20 // 1MiB
	defaultUserAgent    = "wfaclient/1"
	defaultPageSize     = 12
	defaultRecent       = 3
	defaultRecentMax    = 100
	defaultFeatured     = 3
	defaultAuditBuffer  = 256
)

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:      defaultTimeout,
			MaxBodyBytes: defaultMaxBodyBytes,
			UserAgent:    defaultUserAgent,
		},
		Session: SessionConfig{
			VerifyOnRestore: true,
		},
		Catalog: CatalogConfig{
			PageSize:      defaultPageSize,
			RecentDefault: defaultRecent,
			RecentMax:     defaultRecentMax,
			FeaturedLimit: defaultFeatured,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: defaultAuditBuffer,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}

func normalizeConfig(cfg *Config) error {
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = defaultTimeout
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		cfg.HTTP.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = defaultUserAgent
	}
	if cfg.Catalog.PageSize <= 0 {
		cfg.Catalog.PageSize = defaultPageSize
	}
	if cfg.Catalog.RecentDefault <= 0 {
		cfg.Catalog.RecentDefault = defaultRecent
	}
	if cfg.Catalog.RecentMax <= 0 {
		cfg.Catalog.RecentMax = defaultRecentMax
	}
	if cfg.Catalog.RecentDefault > cfg.Catalog.RecentMax {
		return errors.New("wfaclient: Catalog.RecentDefault exceeds Catalog.RecentMax")
	}
	if cfg.Catalog.FeaturedLimit <= 0 {
		cfg.Catalog.FeaturedLimit = defaultFeatured
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize <= 0 {
		cfg.Audit.BufferSize = defaultAuditBuffer
	}
	return nil
}
