package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SecretSource resolves named secrets. An unknown or empty secret is
// reported as absent rather than as an error.
type SecretSource interface {
	Lookup(name string) (string, bool)
}

// EnvSource reads secrets from the process environment.
type EnvSource struct{}

// Lookup implements SecretSource
func (EnvSource) Lookup(name string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(name))
	return value, value != ""
}

// MapSource is a fixed set of secrets.
type MapSource map[string]string

// Lookup implements SecretSource
func (m MapSource) Lookup(name string) (string, bool) {
	value := strings.TrimSpace(m[name])
	return value, value != ""
}

// LoadDotenv reads a dotenv file. A missing file yields an empty source.
func LoadDotenv(path string) (MapSource, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return MapSource{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return MapSource(values), nil
}

// ChainSource consults each source in order; the first hit wins.
type ChainSource []SecretSource

// Lookup implements SecretSource
func (c ChainSource) Lookup(name string) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if value, ok := src.Lookup(name); ok {
			return value, true
		}
	}
	return "", false
}

// SecretStore is the user-level secrets file (~/.deployforge/secrets.yaml).
type SecretStore struct {
	path    string
	Secrets map[string]string `yaml:"secrets"`
}

// OpenSecretStore loads the secrets file at path. A missing file is an empty store.
func OpenSecretStore(path string) (*SecretStore, error) {
	store := &SecretStore{path: path, Secrets: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}

	if err := yaml.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	if store.Secrets == nil {
		store.Secrets = make(map[string]string)
	}
	return store, nil
}

// Path returns the file backing the store.
func (s *SecretStore) Path() string {
	return s.path
}

// Lookup implements SecretSource
func (s *SecretStore) Lookup(name string) (string, bool) {
	value := strings.TrimSpace(s.Secrets[name])
	return value, value != ""
}

// Set stores a secret in memory; call Save to persist.
func (s *SecretStore) Set(name, value string) {
	s.Secrets[name] = value
}

// Unset removes a secret, reporting whether it existed.
func (s *SecretStore) Unset(name string) bool {
	if _, ok := s.Secrets[name]; !ok {
		return false
	}
	delete(s.Secrets, name)
	return true
}

// Names returns the stored secret names in sorted order.
func (s *SecretStore) Names() []string {
	names := make([]string, 0, len(s.Secrets))
	for name := range s.Secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes the store with owner-only permissions.
func (s *SecretStore) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating secrets directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding secrets: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing secrets file: %w", err)
	}
	return nil
}
