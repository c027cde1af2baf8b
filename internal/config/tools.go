package config

import (
	"encoding/json"
	"fmt"
)

// SearXNGConfig holds SearXNG service configuration for web search.
type SearXNGConfig struct {
	// BaseURL is the SearXNG instance URL (e.g., http://searxng:8080)
	BaseURL string `mapstructure:"base_url" json:"base_url"`
}

// WebScraperConfig holds web scraper configuration for web fetching.
type WebScraperConfig struct {
	// Parallelism is max concurrent requests per domain (default: 2)
	Parallelism int `mapstructure:"parallelism" json:"parallelism"`
	// DelayMs is delay between requests in milliseconds (default: 1000)
	DelayMs int `mapstructure:"delay_ms" json:"delay_ms"`
	// TimeoutMs is request timeout in milliseconds (default: 30000)
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// WebhookConfig holds the document-delivery webhook configuration.
// Read once at startup, never mutated afterwards.
type WebhookConfig struct {
	// DocumentURL is the webhook endpoint. When empty, the sendDocument
	// tool is not registered on any agent surface for the lifetime of the
	// process. The decision is made once, at startup.
	DocumentURL string `mapstructure:"document_url" json:"document_url"`

	// DocumentSecret, when set, is attached as a bearer token to every
	// webhook request.
	DocumentSecret string `mapstructure:"document_secret" json:"document_secret"` // SENSITIVE: masked in MarshalJSON
}

// Enabled reports whether document delivery is configured at all.
func (w WebhookConfig) Enabled() bool {
	return w.DocumentURL != ""
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (w WebhookConfig) MarshalJSON() ([]byte, error) {
	type alias WebhookConfig
	a := alias(w)
	a.DocumentSecret = maskSecret(a.DocumentSecret)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook config: %w", err)
	}
	return data, nil
}

// OtelConfig holds OTLP trace export configuration.
type OtelConfig struct {
	// AgentHost is the local OTLP collector endpoint (default: localhost:4318)
	AgentHost string `mapstructure:"agent_host" json:"agent_host"`
	// Environment tags exported spans (e.g., "dev", "prod")
	Environment string `mapstructure:"environment" json:"environment"`
	// ServiceName identifies this service in traces
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}
