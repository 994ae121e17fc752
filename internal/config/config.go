// Package config loads MongoDB connection settings from CLI flags,
// process environment, and an optional .env file, in that precedence
// order, per spec §6 and SPEC_FULL.md §4.CFG.
package config

import (
	"bufio"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the resolved connection configuration the CLI hands to
// internal/mongoexec.Connect.
type Config struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Batch    bool
	Execute  string
	// RedisAddr, set from MONGOSQL_REDIS_ADDR/REDIS_ADDR, enables
	// internal/plancache when non-empty; a plan cache is optional.
	RedisAddr string
}

// envPairs lists, in precedence order (first wins), the environment
// variable names spec §6 documents for each field.
var envPairs = map[string][]string{
	"host":     {"MONGO_HOST", "MONGODB_HOST"},
	"port":     {"MONGO_PORT", "MONGODB_PORT"},
	"database": {"MONGO_DATABASE", "MONGODB_DATABASE"},
	"username": {"MONGO_USERNAME", "MONGODB_USERNAME"},
	"password": {"MONGO_PASSWORD", "MONGODB_PASSWORD"},
	"redis":    {"MONGOSQL_REDIS_ADDR", "REDIS_ADDR"},
}

// Load resolves a Config from environment variables and a .env file (if
// present in the working directory), applying defaults afterward. CLI
// flags are layered on top by the caller, which assigns the parsed flag
// values over the returned fields, since flag parsing lives in
// cmd/mongosql, not here.
func Load() Config {
	env := readDotEnv(".env")
	lookup := func(names []string) string {
		for _, n := range names {
			if v := os.Getenv(n); v != "" {
				return v
			}
		}
		for _, n := range names {
			if v, ok := env[n]; ok && v != "" {
				return v
			}
		}
		return ""
	}
	cfg := Config{
		Host:      lookup(envPairs["host"]),
		Port:      lookup(envPairs["port"]),
		Database:  lookup(envPairs["database"]),
		Username:  lookup(envPairs["username"]),
		Password:  lookup(envPairs["password"]),
		RedisAddr: lookup(envPairs["redis"]),
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = "27017"
	}
	return cfg
}

// readDotEnv parses a simple KEY=VALUE-per-line file, skipping blanks and
// '#' comments. Values may optionally be wrapped in single or double
// quotes. A missing file is not an error: it simply contributes nothing.
func readDotEnv(path string) map[string]string {
	out := map[string]string{}
	f, err := os.Open(path)
	if err != nil {
		return out
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		val = unquote(val)
		out[key] = val
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// ProjectConfig is the optional mongosql.yaml file SPEC_FULL.md §5 adds
// alongside .env: collection-name overrides and a default tenant label,
// loaded with the same YAML library the pack's SQL-parser repo uses for
// its own schema config.
type ProjectConfig struct {
	DefaultTenant       string            `yaml:"default_tenant"`
	CollectionOverrides map[string]string `yaml:"collection_overrides"`
}

// LoadProjectConfig reads mongosql.yaml from the working directory. A
// missing file yields a zero-value ProjectConfig, not an error: the
// project config is always optional.
func LoadProjectConfig(path string) (ProjectConfig, error) {
	var pc ProjectConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pc, nil
		}
		return pc, err
	}
	if err := yaml.Unmarshal(data, &pc); err != nil {
		return pc, err
	}
	return pc, nil
}

// ResolveCollection applies a project config's collection-name override,
// if one exists for table; otherwise returns table unchanged so the
// caller's own inflection.Plural fallback still applies.
func (pc ProjectConfig) ResolveCollection(table string) (string, bool) {
	if pc.CollectionOverrides == nil {
		return table, false
	}
	name, ok := pc.CollectionOverrides[table]
	if !ok {
		return table, false
	}
	return name, true
}
