package notify

import "encoding/json"

// ChannelConfig mirrors a NotificationChannel's config_json shape (spec
// §3/§4.5): destination, method, headers, timeout, and optional signing.
type ChannelConfig struct {
	URL         string            `json:"url"`
	Method      string            `json:"method"`
	Headers     map[string]string `json:"headers"`
	TimeoutMS   int               `json:"timeout_ms"`
	PayloadType string            `json:"payload_type"`
	Signing     *SigningConfig    `json:"signing"`
}

// SigningConfig enables HMAC-SHA256 request signing.
type SigningConfig struct {
	Enabled   bool   `json:"enabled"`
	SecretRef string `json:"secret_ref"`
}

// ParseChannelConfig decodes a channel's config_json, applying the spec's
// defaults (method=POST, payload_type=json, timeout_ms=5000) for fields the
// operator left unset.
func ParseChannelConfig(raw string) (ChannelConfig, error) {
	var cfg ChannelConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return ChannelConfig{}, err
	}
	if cfg.Method == "" {
		cfg.Method = "POST"
	}
	if cfg.PayloadType == "" {
		cfg.PayloadType = "json"
	}
	if cfg.TimeoutMS <= 0 {
		cfg.TimeoutMS = 5000
	}
	return cfg, nil
}
