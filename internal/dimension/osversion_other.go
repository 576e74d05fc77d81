//go:build !unix && !windows

package dimension

import "runtime"

func detectOSVersion() string {
	return runtime.GOOS
}
