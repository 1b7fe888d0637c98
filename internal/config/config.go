// Package config loads graphtown settings from a YAML file, with values
// from the process environment and an optional .env file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	client "github.com/hanpama/graphtown/internal/client"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvEndpoint overrides graphql_endpoint from the file when set.
const EnvEndpoint = "GRAPHTOWN_GRAPHQL_ENDPOINT"

// Config holds the settings the executor and its client need.
type Config struct {
	GraphQLEndpoint string            `yaml:"graphql_endpoint"`
	Headers         map[string]string `yaml:"headers"`
	SchemaPath      string            `yaml:"schema_path"`
	Timeout         Duration          `yaml:"timeout"`
}

// Duration is a time.Duration written as "10s" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Load reads the YAML file at path. A .env file next to it is loaded into the
// environment first (existing variables win), then ${VAR} references in the
// file are expanded. A missing file yields an empty config so that the
// endpoint can come from the environment alone.
func Load(path string) (*Config, error) {
	if path != "" {
		envFile := filepath.Join(filepath.Dir(path), ".env")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: %w", err)
		default:
			if err := Parse(b, cfg); err != nil {
				return nil, fmt.Errorf("config: %s: %w", path, err)
			}
		}
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.GraphQLEndpoint = v
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} with the value of the environment variable NAME,
// or the empty string when it is unset. A bare $ is left as written.
func expandEnv(b []byte) []byte {
	return envRef.ReplaceAllFunc(b, func(m []byte) []byte {
		return []byte(os.Getenv(string(m[2 : len(m)-1])))
	})
}

// Parse decodes YAML into cfg after expanding ${VAR} references.
func Parse(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(expandEnv(b)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// Endpoint returns the configured endpoint. It is the executor's endpoint
// source, so an empty value surfaces as a configuration error there.
func (c *Config) Endpoint() (string, error) { return c.GraphQLEndpoint, nil }

// ConfigureClient applies headers, schema path and timeout to a client.
func (c *Config) ConfigureClient(cl *client.Client) {
	for k, v := range c.Headers {
		cl.Header.Set(k, v)
	}
	if c.SchemaPath != "" {
		cl.SchemaPath = c.SchemaPath
	}
	if c.Timeout > 0 {
		cl.Timeout = time.Duration(c.Timeout)
	}
}
