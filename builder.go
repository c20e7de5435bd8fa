package wfaclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wfa-platform/wfaclient/internal/latch"
	"github.com/wfa-platform/wfaclient/session"
)

// Builder assembles a [Client]. A Builder is single-use: Build fails
// on the second call.
type Builder struct {
	config Config

	baseURL    string
	httpClient *http.Client
	storage    session.Storage
	auditSink  AuditSink

	built bool
}

// New starts a Builder with defaults.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the backend base URL, e.g. https://api.wfa.example.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.baseURL = baseURL
	return b
}

// WithHTTPClient supplies the HTTP client executing every request. Its
// transport is wrapped to inject the bearer token and request IDs.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithTokenStorage selects where the bearer token persists across
// restarts. Defaults to in-memory (nothing survives the process).
func (b *Builder) WithTokenStorage(storage session.Storage) *Builder {
	b.storage = storage
	return b
}

// WithAuditSink enables audit dispatch into sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the counter registry.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the Client. No I/O
// happens here.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	baseURL, err := validateBaseURL(b.baseURL)
	if err != nil {
		return nil, err
	}

	cfg := cloneConfig(b.config)
	if err := normalizeConfig(&cfg); err != nil {
		return nil, err
	}

	sessions := session.NewStore(b.storage)

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	} else {
		// Copy so wrapping the transport never mutates the caller's
		// client.
		clone := *httpClient
		httpClient = &clone
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = cfg.HTTP.Timeout
	}
	httpClient.Transport = newAuthTransport(httpClient.Transport, sessions, cfg.HTTP.UserAgent)

	return &Client{
		config:   cfg,
		baseURL:  baseURL,
		http:     httpClient,
		sessions: sessions,
		submits:  latch.New(),
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
	}, nil
}

func validateBaseURL(raw string) (string, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(raw), "/")
	if baseURL == "" {
		return "", errors.New("wfaclient: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("wfaclient: base URL must be a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("wfaclient: base URL scheme must be http or https")
	}
	if parsed.User != nil {
		return "", errors.New("wfaclient: base URL must not include user info")
	}
	return baseURL, nil
}
