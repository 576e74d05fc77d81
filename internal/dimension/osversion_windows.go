//go:build windows

package dimension

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// detectOSVersion reports "windows/<major>.<minor>.<build>". RtlGetVersion is
// used because GetVersionEx lies to unmanifested processes.
func detectOSVersion() string {
	v := windows.RtlGetVersion()
	return fmt.Sprintf("windows/%d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber)
}
