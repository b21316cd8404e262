// Package config loads typed configuration from environment variables.
//
// It combines github.com/joho/godotenv, which reads .env files into the
// process environment, with github.com/caarlos0/env/v11, which parses the
// environment into structs annotated with `env` and `envDefault` tags.
//
// Each configuration type is parsed once and cached for the lifetime of the
// process. Tests that change the environment call Reload or ResetCache.
//
//	var cfg notification.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Errors wrap ErrParsingConfig, ErrLoadingEnvFile or ErrNilPointer and can be
// checked with errors.Is.
package config
