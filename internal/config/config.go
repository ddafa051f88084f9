// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) returns a Config populated with documented defaults.
// - Load(ctx) layers defaults, an optional YAML file and DIAG_ env vars.
// - Validation errors wrap ErrInvalidConfig; loading errors wrap ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/inforum/diagnostico/internal/domain/region"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// AllowedOrigins is a comma-separated CORS allow list for the wizard.
	AllowedOrigins string `koanf:"allowed_origins"`

	// DefaultOrigin is used to build absolute asset URLs when the request
	// carries no Host or X-Forwarded-Host header.
	DefaultOrigin string `koanf:"default_origin"`

	CRM     CRM     `koanf:"crm"`
	SMTP    SMTP    `koanf:"smtp"`
	Site    Site    `koanf:"site"`
	Regions Regions `koanf:"regions"`
}

// CRM configures the Pipedrive client.
type CRM struct {
	// Domain is the Pipedrive company subdomain.
	Domain string `koanf:"domain"`
	// BaseURL overrides the URL derived from Domain.
	BaseURL string `koanf:"base_url"`
	// APIToken is sent as the api_token query parameter.
	APIToken string `koanf:"api_token"`
	// PersonRoleField is the custom field key that stores the respondent role.
	PersonRoleField string `koanf:"person_role_field"`
	// Currency of created deals.
	Currency string `koanf:"currency"`
	// TimeoutMS bounds every CRM call.
	TimeoutMS int `koanf:"timeout_ms"`
}

// SMTP configures the confirmation email relay. Empty credentials disable it.
type SMTP struct {
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	User      string `koanf:"user"`
	Pass      string `koanf:"pass"`
	From      string `koanf:"from"`
	TimeoutMS int    `koanf:"timeout_ms"`
}

// Site configures links embedded in the email and the result screen.
type Site struct {
	URL          string `koanf:"url"`
	VideoURL     string `koanf:"video_url"`
	AssetVersion string `koanf:"asset_version"`
}

// Regions holds the per-region routing and phone tables keyed by code.
type Regions struct {
	Default        string            `koanf:"default"`
	Aliases        map[string]string `koanf:"aliases"`
	Pipelines      map[string]int64  `koanf:"pipelines"`
	Stages         map[string]int64  `koanf:"stages"`
	PhonePrefixes  map[string]string `koanf:"phone_prefixes"`
	PhoneMinDigits map[string]int    `koanf:"phone_min_digits"`
}

// New creates a Config with defaults. Context is accepted first to follow
// the project-wide convention.
func New(_ context.Context) *Config {
	t := region.DefaultTables()
	c := &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		AllowedOrigins: "*",
		DefaultOrigin:  "https://cuestionario-incloud.vercel.app",
		CRM: CRM{
			Currency:  "GTQ",
			TimeoutMS: 10_000,
		},
		SMTP: SMTP{
			Host:      "smtp-relay.brevo.com",
			Port:      587,
			From:      "Inforum <info@inforumsol.com>",
			TimeoutMS: 15_000,
		},
		Site: Site{
			URL:      "https://www.grupoinforum.com",
			VideoURL: "https://www.youtube.com/watch?v=b_J0E39c-vA",
		},
		Regions: Regions{
			Default:        string(t.Default),
			Aliases:        make(map[string]string, len(t.Aliases)),
			Pipelines:      make(map[string]int64, len(region.Codes)),
			Stages:         make(map[string]int64, len(region.Codes)),
			PhonePrefixes:  make(map[string]string, len(region.Codes)),
			PhoneMinDigits: make(map[string]int, len(region.Codes)),
		},
	}
	for label, code := range t.Aliases {
		c.Regions.Aliases[label] = string(code)
	}
	for _, code := range region.Codes {
		k := string(code)
		c.Regions.Pipelines[k] = t.Pipelines[code]
		c.Regions.Stages[k] = t.Stages[code]
		c.Regions.PhonePrefixes[k] = t.PhonePrefixes[code]
		c.Regions.PhoneMinDigits[k] = t.PhoneMinDigits[code]
	}
	return c
}

// Origins returns the CORS allow list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// CRMBaseURL returns the Pipedrive API root.
func (c *Config) CRMBaseURL() string {
	if c.CRM.BaseURL != "" {
		return strings.TrimRight(c.CRM.BaseURL, "/")
	}
	if c.CRM.Domain == "" {
		return ""
	}
	return "https://" + c.CRM.Domain + ".pipedrive.com/api/v1"
}

// MailEnabled reports whether SMTP credentials are configured.
func (c *Config) MailEnabled() bool {
	return c.SMTP.User != "" && c.SMTP.Pass != ""
}

// RegionTables converts the region section into resolver tables. Load
// already stores keys upper-cased; they are upper-cased again here for
// configs built by hand.
func (c *Config) RegionTables() region.Tables {
	t := region.Tables{
		Default:        region.Code(strings.ToUpper(strings.TrimSpace(c.Regions.Default))),
		Aliases:        make(map[string]region.Code, len(c.Regions.Aliases)),
		Pipelines:      make(map[region.Code]int64, len(c.Regions.Pipelines)),
		Stages:         make(map[region.Code]int64, len(c.Regions.Stages)),
		PhonePrefixes:  make(map[region.Code]string, len(c.Regions.PhonePrefixes)),
		PhoneMinDigits: make(map[region.Code]int, len(c.Regions.PhoneMinDigits)),
	}
	for label, code := range c.Regions.Aliases {
		t.Aliases[strings.ToUpper(label)] = region.Code(strings.ToUpper(code))
	}
	for k, v := range c.Regions.Pipelines {
		t.Pipelines[region.Code(strings.ToUpper(k))] = v
	}
	for k, v := range c.Regions.Stages {
		t.Stages[region.Code(strings.ToUpper(k))] = v
	}
	for k, v := range c.Regions.PhonePrefixes {
		t.PhonePrefixes[region.Code(strings.ToUpper(k))] = v
	}
	for k, v := range c.Regions.PhoneMinDigits {
		t.PhoneMinDigits[region.Code(strings.ToUpper(k))] = v
	}
	return t
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CRM.TimeoutMS <= 0:
		return fmt.Errorf("%w: crm.timeout_ms must be positive", ErrInvalidConfig)
	case c.MailEnabled() && (c.SMTP.Host == "" || c.SMTP.Port <= 0):
		return fmt.Errorf("%w: smtp host and port are required when credentials are set", ErrInvalidConfig)
	}
	if _, err := region.NewResolver(c.RegionTables()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
