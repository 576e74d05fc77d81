// Package dimension describes the environment axes (OS version, DPI, theme,
// culture, ...) that a master image can be tagged with, and captures their
// current values on this machine.
package dimension

import (
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strings"
)

// Dimension is a named, independently valued axis of the machine state.
// Whether a dimension may be used as a match criterion is fixed in the
// catalog and never changes per instance.
type Dimension struct {
	name      string
	indexable bool
	detect    func() string
}

// Name returns the stable catalog name.
func (d *Dimension) Name() string { return d.name }

// Indexable reports whether the dimension may be used as a match criterion.
func (d *Dimension) Indexable() bool { return d.indexable }

func (d *Dimension) String() string { return d.name }

// Value returns the current value of d. env is consulted first; the system
// detector is only used when env has no non-empty value.
func (d *Dimension) Value(env Environment) string {
	if env != nil {
		if v, ok := env.Lookup(d.name); ok && v != "" {
			return v
		}
	}
	return d.detect()
}

var (
	OsVersion    = &Dimension{name: "OsVersion", indexable: true, detect: detectOSVersion}
	Architecture = &Dimension{name: "Architecture", indexable: true, detect: func() string { return runtime.GOARCH }}
	Dpi          = &Dimension{name: "Dpi", indexable: true, detect: func() string { return "96" }}
	Theme        = &Dimension{name: "Theme", indexable: true, detect: func() string { return "default" }}
	Culture      = &Dimension{name: "Culture", indexable: true, detect: detectCulture}
	MachineName  = &Dimension{name: "MachineName", indexable: false, detect: detectHostname}
	User         = &Dimension{name: "User", indexable: false, detect: detectUser}
)

// catalog order is the order used for listings and sidecar output.
var catalog = []*Dimension{
	OsVersion,
	Architecture,
	Dpi,
	Theme,
	Culture,
	MachineName,
	User,
}

// All returns every catalog dimension in catalog order.
func All() []*Dimension {
	out := make([]*Dimension, len(catalog))
	copy(out, catalog)
	return out
}

// Indexable returns the dimensions usable as match criteria.
func Indexable() []*Dimension {
	var out []*Dimension
	for _, d := range catalog {
		if d.indexable {
			out = append(out, d)
		}
	}
	return out
}

// Lookup finds a catalog dimension by name, ignoring case.
func Lookup(name string) (*Dimension, error) {
	name = strings.TrimSpace(name)
	for _, d := range catalog {
		if strings.EqualFold(d.name, name) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, name)
}

// RequireIndexable returns ErrUnsupportedDimension when d cannot be a criterion.
func RequireIndexable(d *Dimension) error {
	if d == nil {
		return fmt.Errorf("%w: nil dimension", ErrUnsupportedDimension)
	}
	if !d.indexable {
		return fmt.Errorf("%w: %s", ErrUnsupportedDimension, d.name)
	}
	return nil
}

// ParseCriteria resolves a list of names into indexable dimensions.
// Duplicates are dropped, first occurrence wins.
func ParseCriteria(names []string) ([]*Dimension, error) {
	var out []*Dimension
	seen := map[*Dimension]bool{}
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		d, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		if err := RequireIndexable(d); err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}

func detectCulture() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(k); v != "" {
			return normalizeLocale(v)
		}
	}
	return "en-US"
}

// normalizeLocale turns POSIX locale names into culture tags:
//
//	en_US.UTF-8 → en-US
//	C / POSIX   → invariant
func normalizeLocale(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "C" || v == "POSIX" || v == "" {
		return "invariant"
	}
	return strings.ReplaceAll(v, "_", "-")
}

func detectHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func detectUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}
