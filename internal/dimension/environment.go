package dimension

import (
	"os"
	"strings"
)

// Environment answers "what is the current value of dimension <name>?"
// without side effects. A false second return means "no opinion", letting
// the dimension fall back to its system lookup.
type Environment interface {
	Lookup(name string) (string, bool)
}

// Overrides maps dimension names to fixed values. Keys match case-insensitively.
type Overrides map[string]string

// Lookup implements Environment.
func (o Overrides) Lookup(name string) (string, bool) {
	if v, ok := o[name]; ok {
		return v, true
	}
	for k, v := range o {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// EnvKey returns the variable name used to override a dimension, e.g.
// BASELINE_DIM_THEME.
func EnvKey(name string) string {
	return "BASELINE_DIM_" + strings.ToUpper(name)
}

// Vars looks dimensions up by EnvKey in a key/value set, typically the
// parsed dotenv file.
type Vars map[string]string

// Lookup implements Environment.
func (v Vars) Lookup(name string) (string, bool) {
	s, ok := v[EnvKey(name)]
	return s, ok
}

// ProcessEnv looks dimensions up by EnvKey in the process environment.
type ProcessEnv struct{}

// Lookup implements Environment.
func (ProcessEnv) Lookup(name string) (string, bool) {
	return os.LookupEnv(EnvKey(name))
}

// Chain consults each Environment in order and returns the first non-empty value.
type Chain []Environment

// Lookup implements Environment.
func (c Chain) Lookup(name string) (string, bool) {
	for _, e := range c {
		if e == nil {
			continue
		}
		if v, ok := e.Lookup(name); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
