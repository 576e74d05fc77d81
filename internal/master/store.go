package master

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/kamusis/baseline/internal/dimension"
)

// NamePlaceholder is replaced by the logical test name in a file pattern.
const NamePlaceholder = "{name}"

// DefaultPattern matches every master of a test: <name>.<n>.<ext>.
const DefaultPattern = NamePlaceholder + ".*"

const lockFile = ".baseline.lock"

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// Pattern expands the {name} placeholder in tmpl. Glob metacharacters in
// name are escaped so they match literally.
func Pattern(tmpl, name string) string {
	if tmpl == "" {
		tmpl = DefaultPattern
	}
	return strings.ReplaceAll(tmpl, NamePlaceholder, globEscaper.Replace(name))
}

// PatternAll expands tmpl so it matches the masters of every name.
func PatternAll(tmpl string) string {
	if tmpl == "" {
		tmpl = DefaultPattern
	}
	return strings.ReplaceAll(tmpl, NamePlaceholder, "*")
}

var globEscaper = strings.NewReplacer("*", "[*]", "?", "[?]", "[", "[[]")

// Discover returns the masters in dir whose file names match pattern, in
// lexicographic order. Images without a readable sidecar are skipped with a
// warning: they cannot take part in resolution.
func Discover(dir, pattern string) ([]Candidate, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid master pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	var out []Candidate
	for _, p := range matches {
		if !IsImage(p) {
			continue
		}
		m, err := ReadMetadata(p)
		if err != nil {
			slog.Warn("skipping master without usable metadata", "path", p, "error", err)
			continue
		}
		out = append(out, Candidate{Path: p, Metadata: m})
	}
	return out, nil
}

// DiscoverName returns the masters of the test called name. A pattern such
// as "{name}.*" also matches longer dotted names ("login" matches
// "login.dark.0.png"), so only files whose logical name is exactly name are
// kept.
func DiscoverName(dir, tmpl, name string) ([]Candidate, error) {
	cands, err := Discover(dir, Pattern(tmpl, name))
	if err != nil {
		return nil, err
	}
	out := cands[:0]
	for _, c := range cands {
		if n, _, ok := SplitName(c.Path); ok && n == name {
			out = append(out, c)
		}
	}
	return out, nil
}

// Group splits candidates by logical name. Names come back sorted and each
// group keeps the input order. Files without a <name>.<n> name are dropped.
func Group(cands []Candidate) ([]string, map[string][]Candidate) {
	groups := make(map[string][]Candidate)
	for _, c := range cands {
		name, _, ok := SplitName(c.Path)
		if !ok {
			continue
		}
		groups[name] = append(groups[name], c)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, groups
}

// Lock takes the exclusive lock of a masters directory, retrying until
// timeout. The returned func releases it.
func Lock(dir string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create masters dir %s: %w", dir, err)
	}
	lockPath := filepath.Join(dir, lockFile)
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire masters lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("masters directory is busy (lock: %s)", lockPath)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// SplitName splits "<name>.<n>.<ext>" into name and index.
func SplitName(file string) (string, int, bool) {
	base := filepath.Base(file)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(base[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return base[:i], n, true
}

// nextIndex returns one past the highest index used by name in dir.
func nextIndex(dir, name string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	next := 0
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		n, idx, ok := SplitName(e.Name())
		if ok && n == name && idx >= next {
			next = idx + 1
		}
	}
	return next, nil
}

// SaveOptions controls Save.
type SaveOptions struct {
	Dir         string
	Name        string
	Source      string
	Metadata    dimension.Metadata
	LockTimeout time.Duration
}

// Save stores Source as a new master of Name under the next free index and
// writes its sidecar. It holds the directory lock for the whole operation so
// concurrent savers never pick the same index.
func Save(opts SaveOptions) (string, error) {
	if opts.Name == "" {
		return "", fmt.Errorf("master name is required")
	}
	if strings.ContainsAny(opts.Name, `/\`) {
		return "", fmt.Errorf("master name %q must not contain path separators", opts.Name)
	}
	if !IsImage(opts.Source) {
		return "", fmt.Errorf("unsupported image type: %s", opts.Source)
	}
	unlock, err := Lock(opts.Dir, opts.LockTimeout)
	if err != nil {
		return "", err
	}
	defer unlock()

	n, err := nextIndex(opts.Dir, opts.Name)
	if err != nil {
		return "", fmt.Errorf("cannot scan masters dir %s: %w", opts.Dir, err)
	}
	dst := filepath.Join(opts.Dir, fmt.Sprintf("%s.%d%s", opts.Name, n, strings.ToLower(filepath.Ext(opts.Source))))
	if err := copyFile(opts.Source, dst); err != nil {
		return "", fmt.Errorf("copy %s → %s: %w", opts.Source, dst, err)
	}
	if err := WriteMetadata(dst, opts.Metadata); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// copyFile copies src to dst, failing if dst already exists.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
