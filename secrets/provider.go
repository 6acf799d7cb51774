package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Provider resolves the API key used to authenticate against the data source.
// A failed lookup is fatal to the run and must surface before any fetch.
type Provider interface {
	APIKey() (string, error)
}

// Env reads the key from an environment variable.
type Env struct {
	Var string
}

func (e Env) APIKey() (string, error) {
	key := strings.TrimSpace(os.Getenv(e.Var))
	if key == "" {
		return "", fmt.Errorf("secrets: environment variable %s is not set", e.Var)
	}
	return key, nil
}

// Static returns a fixed key, mainly for tests.
type Static string

func (s Static) APIKey() (string, error) {
	if s == "" {
		return "", fmt.Errorf("secrets: static key is empty")
	}
	return string(s), nil
}

// Chain tries each provider in order and returns the first key found.
type Chain []Provider

func (c Chain) APIKey() (string, error) {
	var lastErr error
	for _, p := range c {
		key, err := p.APIKey()
		if err == nil {
			return key, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("secrets: no providers configured")
	}
	return "", lastErr
}
