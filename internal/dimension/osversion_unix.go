//go:build unix

package dimension

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// detectOSVersion reports "<goos>/<kernel release>", e.g. "linux/6.8.0-45-generic".
func detectOSVersion() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return runtime.GOOS
	}
	return runtime.GOOS + "/" + unix.ByteSliceToString(u.Release[:])
}
