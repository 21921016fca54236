package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty secret", func(c *Config) { c.JWTSecret = "" }},
		{"empty issuer", func(c *Config) { c.JWTIssuer = "" }},
		{"empty dsn", func(c *Config) { c.DatabaseDSN = "" }},
		{"empty frontend url", func(c *Config) { c.FrontendBaseURL = "" }},
		{"zero access ttl", func(c *Config) { c.AccessTokenTTL = 0 }},
		{"negative refresh ttl", func(c *Config) { c.RefreshTokenTTL = -time.Hour }},
		{"zero link ttl", func(c *Config) { c.VerificationLinkTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
