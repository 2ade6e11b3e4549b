package config

import (
	"fmt"
	"os"
	"strings"
)

// Resolver expands environment references in configuration values.
// "$NAME" and "${NAME}" are replaced by the variable; any other value is
// returned unchanged.
type Resolver struct {
	lookup func(string) (string, bool)
}

// NewResolver creates a resolver backed by the process environment.
func NewResolver() *Resolver {
	return &Resolver{lookup: os.LookupEnv}
}

// NewResolverWithEnv creates a resolver backed by env.
func NewResolverWithEnv(env map[string]string) *Resolver {
	return &Resolver{lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}
}

// Lookup returns the trimmed value of an environment variable.
func (r *Resolver) Lookup(name string) string {
	v, _ := r.lookup(name)
	return strings.TrimSpace(v)
}

// Resolve expands value. Referencing an unset or empty variable is an error.
func (r *Resolver) Resolve(value string) (string, error) {
	value = strings.TrimSpace(value)
	name, ok := envRef(value)
	if !ok {
		return value, nil
	}
	v := r.Lookup(name)
	if v == "" {
		return "", fmt.Errorf("environment variable %s is not set", name)
	}
	return v, nil
}

func envRef(value string) (string, bool) {
	if !strings.HasPrefix(value, "$") {
		return "", false
	}
	name := strings.TrimPrefix(value, "$")
	if strings.HasPrefix(name, "{") {
		if !strings.HasSuffix(name, "}") {
			return "", false
		}
		name = name[1 : len(name)-1]
	}
	if name == "" {
		return "", false
	}
	for _, c := range name {
		if c != '_' && (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return "", false
		}
	}
	return name, true
}
