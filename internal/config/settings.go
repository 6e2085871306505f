package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment keys understood by Load.
const (
	KeyFrontendURL   = "STORECHECK_FRONTEND_URL"
	KeyBackendURL    = "STORECHECK_BACKEND_URL"
	KeyRedisAddr     = "STORECHECK_REDIS_ADDR"
	KeyRedisPassword = "STORECHECK_REDIS_PASSWORD"
	KeyRedisDB       = "STORECHECK_REDIS_DB"
	KeyCacheCommand  = "STORECHECK_CACHE_COMMAND"
	KeyAdminUser     = "STORECHECK_ADMIN_USER"
	KeyAdminPassword = "STORECHECK_ADMIN_PASSWORD"
	KeyHeadless      = "STORECHECK_HEADLESS"
	KeyTimeout       = "STORECHECK_TIMEOUT"

	// Legacy names used by existing functional test setups.
	legacyFrontendURL = "app_frontend_url"
	legacyBackendURL  = "app_backend_url"
)

// Defaults applied when a key is not set anywhere.
const (
	DefaultFrontendURL  = "http://localhost/"
	DefaultBackendURL   = "http://localhost/admin/"
	DefaultCacheCommand = "bin/magento cache:flush"
	DefaultTimeout      = 30 * time.Second
)

// Settings is the resolved configuration for a storecheck invocation.
type Settings struct {
	Env           Environment
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheCommand  string
	AdminUser     string
	AdminPassword string
	Headless      bool
	Timeout       time.Duration
}

// LookupFunc resolves a single key. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load resolves settings from the process environment and the given env
// files. Process environment values take precedence over file values.
// Missing files are an error; pass no files to skip file loading.
func Load(envFiles ...string) (*Settings, error) {
	return LoadFrom(os.LookupEnv, envFiles...)
}

// LoadFrom is Load with an explicit lookup for the process environment.
func LoadFrom(lookup LookupFunc, envFiles ...string) (*Settings, error) {
	fileValues := map[string]string{}
	if len(envFiles) > 0 {
		values, err := godotenv.Read(envFiles...)
		if err != nil {
			return nil, fmt.Errorf("failed to read env files: %w", err)
		}
		fileValues = values
	}

	get := func(keys ...string) (string, bool) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				return v, true
			}
		}
		for _, key := range keys {
			if v, ok := fileValues[key]; ok && v != "" {
				return v, true
			}
		}
		return "", false
	}

	s := &Settings{
		Env: Environment{
			FrontendURL: DefaultFrontendURL,
			BackendURL:  DefaultBackendURL,
		},
		CacheCommand: DefaultCacheCommand,
		Headless:     true,
		Timeout:      DefaultTimeout,
	}

	if v, ok := get(KeyFrontendURL, legacyFrontendURL); ok {
		s.Env.FrontendURL = v
	}
	if v, ok := get(KeyBackendURL, legacyBackendURL); ok {
		s.Env.BackendURL = v
	}
	if err := s.Env.Validate(); err != nil {
		return nil, err
	}

	s.RedisAddr, _ = get(KeyRedisAddr)
	s.RedisPassword, _ = get(KeyRedisPassword)
	if v, ok := get(KeyRedisDB); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", KeyRedisDB, err)
		}
		s.RedisDB = db
	}
	if v, ok := get(KeyCacheCommand); ok {
		s.CacheCommand = v
	}
	s.AdminUser, _ = get(KeyAdminUser)
	s.AdminPassword, _ = get(KeyAdminPassword)
	if v, ok := get(KeyHeadless); ok {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", KeyHeadless, err)
		}
		s.Headless = headless
	}
	if v, ok := get(KeyTimeout); ok {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", KeyTimeout, err)
		}
		s.Timeout = timeout
	}

	return s, nil
}
