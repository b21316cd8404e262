package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// registry holds one parsed value per configuration type.
type registry struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}

var (
	cache = &registry{values: make(map[reflect.Type]any)}

	dotenvOnce sync.Once
)

// LoadEnv reads the given .env files into the process environment.
// Later files take precedence over earlier ones and over variables already set.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Overload(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	dotenvOnce.Do(func() {})
	return nil
}

// MustLoadEnv is LoadEnv that panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(err)
	}
}

// Load parses environment variables into v according to its `env` tags.
// The default .env file is read once on first use when present. Each
// configuration type is parsed once; later calls copy the cached value.
//
//	type LockConfig struct {
//		Dir  string        `env:"NOTIFICATION_LOCK_DIR"`
//		Wait time.Duration `env:"NOTIFICATION_LOCK_WAIT_TIMEOUT" envDefault:"-1s"`
//	}
//
//	var cfg LockConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() {
		// A missing .env file is the normal case in production.
		_ = godotenv.Load()
	})

	key := reflect.TypeOf(v).Elem()

	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cached, ok := cache.values[key]; ok {
		*v = cached.(T)
		return nil
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache.values[key] = *v
	return nil
}

// MustLoad is Load that panics on failure. Use it for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: load %T: %v", v, err))
	}
}

// Reload drops the cached value for T and parses the environment again.
func Reload[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	cache.mu.Lock()
	delete(cache.values, reflect.TypeOf(v).Elem())
	cache.mu.Unlock()
	return Load(v)
}

// ResetCache forgets every parsed configuration.
func ResetCache() {
	cache.mu.Lock()
	cache.values = make(map[reflect.Type]any)
	cache.mu.Unlock()
}
