// Package gws holds the Google Workspace API adapters. Each adapter
// implements one of the engine's collaborator interfaces over the
// corresponding Google service: Admin SDK Directory for principals,
// Drive v3 for storage, Docs v1 for content, and Enterprise License
// Manager for license assignment.
//
// All calls authenticate as a service account with domain-wide
// delegation. Admin-scoped services impersonate the admin subject;
// per-user Drive and Docs services impersonate the synthetic users so
// files are owned by the users themselves.
package gws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"

	"github.com/gwsynth/gwsynth/pkg/telemetry"
)

// Admin-scoped services act on the directory, licensing and the shared
// drive corpus.
var adminScopes = []string{
	"https://www.googleapis.com/auth/admin.directory.user",
	"https://www.googleapis.com/auth/admin.directory.group",
	"https://www.googleapis.com/auth/admin.directory.orgunit",
	"https://www.googleapis.com/auth/apps.groups.settings",
	"https://www.googleapis.com/auth/apps.licensing",
	"https://www.googleapis.com/auth/drive",
}

// User-scoped services write files and document bodies as the user.
var userScopes = []string{
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/documents",
}

// Config carries the tenant coordinates and credentials location.
type Config struct {
	// ServiceAccountPath points at the delegated service account key file.
	ServiceAccountPath string
	// AdminSubject is the workspace admin impersonated for directory,
	// licensing and shared-drive management calls.
	AdminSubject string
	// CustomerID scopes Admin SDK calls to the tenant.
	CustomerID string
	// Domain is the workspace primary domain.
	Domain string
}

// ConfigFromEnv reads the tenant coordinates from GOOGLE_SA_JSON,
// GOOGLE_ADMIN_SUBJECT, GOOGLE_CUSTOMER_ID and GOOGLE_DOMAIN.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		ServiceAccountPath: strings.TrimSpace(os.Getenv("GOOGLE_SA_JSON")),
		AdminSubject:       strings.TrimSpace(os.Getenv("GOOGLE_ADMIN_SUBJECT")),
		CustomerID:         strings.TrimSpace(os.Getenv("GOOGLE_CUSTOMER_ID")),
		Domain:             strings.TrimSpace(os.Getenv("GOOGLE_DOMAIN")),
	}
	switch {
	case cfg.ServiceAccountPath == "":
		return Config{}, errors.New("missing GOOGLE_SA_JSON path")
	case cfg.AdminSubject == "":
		return Config{}, errors.New("missing GOOGLE_ADMIN_SUBJECT")
	case cfg.CustomerID == "":
		return Config{}, errors.New("missing GOOGLE_CUSTOMER_ID")
	case cfg.Domain == "":
		return Config{}, errors.New("missing GOOGLE_DOMAIN")
	}
	return cfg, nil
}

// Client mints authenticated Google API services for a tenant. Token
// sources are derived per impersonated subject from the service account
// key; the Google services themselves are built lazily and cached.
type Client struct {
	cfg     Config
	saJSON  []byte
	metrics *telemetry.Metrics

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// NewClient loads the service account key and prepares a client.
// Metrics may be nil.
func NewClient(cfg Config, metrics *telemetry.Metrics) (*Client, error) {
	raw, err := os.ReadFile(cfg.ServiceAccountPath)
	if err != nil {
		return nil, fmt.Errorf("reading service account key: %w", err)
	}
	// Validate the key up front so a bad file fails before any run work.
	if _, err := google.JWTConfigFromJSON(raw, adminScopes...); err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}
	return &Client{
		cfg:     cfg,
		saJSON:  raw,
		metrics: metrics,
		sources: make(map[string]oauth2.TokenSource),
	}, nil
}

// CustomerID returns the configured tenant customer ID.
func (c *Client) CustomerID() string { return c.cfg.CustomerID }

// Domain returns the configured workspace primary domain.
func (c *Client) Domain() string { return c.cfg.Domain }

// tokenSource returns a cached token source impersonating subject with
// the given scopes. Sources are keyed by subject only: a subject is
// always used with one scope set (admin scopes for the admin subject,
// user scopes for everyone else).
func (c *Client) tokenSource(ctx context.Context, subject string, scopes []string) (oauth2.TokenSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if src, ok := c.sources[subject]; ok {
		return src, nil
	}
	jwtCfg, err := google.JWTConfigFromJSON(c.saJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}
	jwtCfg.Subject = subject
	src := jwtCfg.TokenSource(ctx)
	c.sources[subject] = src
	return src, nil
}

// observe records one remote call's latency and error status.
func (c *Client) observe(service, operation string, start time.Time, err error) {
	c.metrics.RecordRemoteCall(service, operation, time.Since(start))
	if err != nil {
		c.metrics.RecordRemoteError(service, operation)
	}
}

// isHTTPStatus reports whether err is a Google API error with the given
// HTTP status code.
func isHTTPStatus(err error, code int) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == code
}
