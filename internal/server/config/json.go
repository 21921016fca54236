package config

import (
	"encoding/json"
	"os"

	"github.com/amaravathi/tradeidentity/internal/flagx"
	"github.com/amaravathi/tradeidentity/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for lifetime fields, which allows
// parsing both string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP    string         `json:"endpoint_addr_http"`
	DatabaseDSN         string         `json:"database_dsn"`
	JWTSecret           string         `json:"jwt_secret"`
	JWTIssuer           string         `json:"jwt_issuer"`
	AccessTokenTTL      timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL     timex.Duration `json:"refresh_token_ttl"`
	VerificationLinkTTL timex.Duration `json:"verification_link_ttl"`
	FrontendBaseURL     string         `json:"frontend_base_url"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c or -config flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.JWTSecret = c.JWTSecret
	config.JWTIssuer = c.JWTIssuer
	config.AccessTokenTTL = c.AccessTokenTTL.Duration
	config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	config.VerificationLinkTTL = c.VerificationLinkTTL.Duration
	config.FrontendBaseURL = c.FrontendBaseURL
}
