package master

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ConflictPair records an incoming master whose file name was taken by a
// different image; the incoming one was stored under a new index instead.
type ConflictPair struct {
	Original string // master already in the directory
	Stored   string // where the incoming image was written
}

// ImportResult is returned by Import.
type ImportResult struct {
	Imported  int      // masters copied
	Skipped   int      // byte-identical to an existing master of the same name
	Invalid   []string // images without a usable sidecar or a <name>.<n> file name
	Conflicts []ConflictPair
}

// Import copies the masters of srcDir into dstDir. A master is skipped when
// dstDir already holds an identical image under the same logical name, so
// running Import twice is harmless.
func Import(srcDir, dstDir string, lockTimeout time.Duration) (*ImportResult, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", srcDir, err)
	}

	unlock, err := Lock(dstDir, lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &ImportResult{}
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		src := filepath.Join(srcDir, e.Name())
		name, _, ok := SplitName(e.Name())
		if !ok {
			result.Invalid = append(result.Invalid, src)
			continue
		}
		meta, err := ReadMetadata(src)
		if err != nil {
			result.Invalid = append(result.Invalid, src)
			continue
		}

		srcMD5, err := fileMD5(src)
		if err != nil {
			return result, fmt.Errorf("md5 %s: %w", src, err)
		}
		dup, err := hasIdentical(dstDir, name, srcMD5)
		if err != nil {
			return result, err
		}
		if dup {
			result.Skipped++
			continue
		}

		dst := filepath.Join(dstDir, e.Name())
		if _, err := os.Stat(dst); err == nil {
			n, err := nextIndex(dstDir, name)
			if err != nil {
				return result, err
			}
			stored := filepath.Join(dstDir, fmt.Sprintf("%s.%d%s", name, n, filepath.Ext(e.Name())))
			result.Conflicts = append(result.Conflicts, ConflictPair{Original: dst, Stored: stored})
			dst = stored
		}
		if err := copyFile(src, dst); err != nil {
			return result, fmt.Errorf("copy %s → %s: %w", src, dst, err)
		}
		if err := WriteMetadata(dst, meta); err != nil {
			_ = os.Remove(dst)
			return result, err
		}
		result.Imported++
	}
	return result, nil
}

// hasIdentical reports whether dir holds a master of name whose content
// hashes to sum.
func hasIdentical(dir, name, sum string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		if n, _, ok := SplitName(e.Name()); !ok || n != name {
			continue
		}
		got, err := fileMD5(filepath.Join(dir, e.Name()))
		if err != nil {
			return false, fmt.Errorf("md5 %s: %w", e.Name(), err)
		}
		if got == sum {
			return true, nil
		}
	}
	return false, nil
}

// fileMD5 returns the hex-encoded MD5 digest of the file at path.
func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
