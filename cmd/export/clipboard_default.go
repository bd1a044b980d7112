//go:build !darwin && !windows

package export

import "fmt"

// writeToClipboard is a no-op on systems without clipboard support
func writeToClipboard(text string) error {
	// The clipboard library needs X11 headers on Linux; printing the
	// code is enough there.
	return fmt.Errorf("clipboard support not available")
}
