// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables, and
// an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string

	// RedisDSN is the Redis connection URL. Empty selects the in-memory
	// store (development only; records do not survive a restart).
	RedisDSN string

	// TokenSecret signs anti-forgery tokens. Empty generates a random
	// secret at startup, which invalidates outstanding tokens on restart.
	TokenSecret string

	// TokenWindowMinutes is the anti-forgery token validity window.
	TokenWindowMinutes int

	// RateLimitPerMinute caps requests per client IP per minute. Zero
	// disables rate limiting.
	RateLimitPerMinute int

	// TLSCert and TLSKey are paths to the server certificate and key.
	// If set but missing on disk, a self-signed pair is generated.
	// Both empty serves plain HTTP.
	TLSCert string
	TLSKey  string

	// LogLevel sets the zap log level.
	LogLevel string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.RedisDSN, "r", "", "redis connection url")
	flag.StringVar(&options.TokenSecret, "s", "", "anti-forgery token secret")
	flag.IntVar(&options.TokenWindowMinutes, "w", 30, "token validity window in minutes")
	flag.IntVar(&options.RateLimitPerMinute, "l", 120, "requests per minute per client ip, 0 disables")
	flag.StringVar(&options.TLSCert, "cert", "", "path to TLS certificate")
	flag.StringVar(&options.TLSKey, "key", "", "path to TLS key")
	flag.StringVar(&options.LogLevel, "log", "info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}
	if redisDSN := os.Getenv("REDIS_DSN"); redisDSN != "" {
		options.RedisDSN = redisDSN
	}
	if tokenSecret := os.Getenv("TOKEN_SECRET"); tokenSecret != "" {
		options.TokenSecret = tokenSecret
	}

	return options
}
