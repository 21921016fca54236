package config

import (
	"flag"
	"os"
	"time"

	"github.com/amaravathi/tradeidentity/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-i string   JWT issuer
//	-t int      access token validity, minutes
//	-r int      refresh token validity, days
//	-m int      email verification link validity, minutes
//	-f string   frontend base URL for verification links
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-i", "-t", "-r", "-m", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "JWT secret key")
	fs.StringVar(&config.JWTIssuer, "i", config.JWTIssuer, "JWT issuer")

	accessTTLMinutes := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token validity (in minutes)")
	refreshTTLDays := fs.Int("r", int(config.RefreshTokenTTL.Hours()/24), "refresh token validity (in days)")
	linkTTLMinutes := fs.Int("m", int(config.VerificationLinkTTL.Minutes()), "verification link validity (in minutes)")

	fs.StringVar(&config.FrontendBaseURL, "f", config.FrontendBaseURL, "frontend base URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenTTL = time.Duration(*accessTTLMinutes) * time.Minute
	config.RefreshTokenTTL = time.Duration(*refreshTTLDays) * 24 * time.Hour
	config.VerificationLinkTTL = time.Duration(*linkTTLMinutes) * time.Minute
}
