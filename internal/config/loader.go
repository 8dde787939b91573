package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "BOOKARENA_"
	configFileEnv = envPrefix + "CONFIG"
	envFileEnv    = envPrefix + "ENV_FILE"
	defaultDotEnv = ".env"
)

// Load builds a Config by layering defaults, an optional .env file, an
// optional YAML file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. .env file (BOOKARENA_ENV_FILE, default ./.env) if it exists
//  3. YAML file if BOOKARENA_CONFIG is set, in the env or the .env file
//  4. env (prefix BOOKARENA_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	dotenv, err := readDotEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	for name, value := range dotenv {
		if key, ok := keyFor(name); ok {
			if err := k.Set(key, value); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
			}
		}
	}

	path := os.Getenv(configFileEnv)
	if path == "" {
		path = dotenv[configFileEnv]
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BOOKARENA_DB_PATH -> db_path. Underscores are kept to match the koanf
	// tags, which are flat.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		key, _ := keyFor(s)
		return key
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readDotEnv parses the .env file without touching the process env. A
// missing default file is not an error; a missing explicit one is.
func readDotEnv() (map[string]string, error) {
	path, explicit := os.LookupEnv(envFileEnv)
	if !explicit || path == "" {
		path = defaultDotEnv
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return values, nil
}

// keyFor maps BOOKARENA_LOG_LEVEL to log_level. The file pointers are not
// config keys.
func keyFor(name string) (string, bool) {
	if !strings.HasPrefix(name, envPrefix) || name == configFileEnv || name == envFileEnv {
		return "", false
	}
	return strings.ToLower(strings.TrimPrefix(name, envPrefix)), true
}
