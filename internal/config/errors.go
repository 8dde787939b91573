package config

import "errors"

var (
	// ErrInvalidConfig wraps a Validate failure naming the bad key.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps a .env, YAML or unmarshal failure.
	ErrLoadConfig = errors.New("load config failed")
)
