package ipc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// SocketPath returns the daemon control socket location. The socket
// lives in the per-user runtime directory so it never survives reboots
// and inherits the directory's 0700 ownership guarantee.
func SocketPath() (string, error) {
	dir, err := socketDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tidal.sock"), nil
}

// socketDir resolves the runtime directory. The live environment wins
// over the xdg package's value cached at process start, so tests and
// session managers that rewrite XDG_RUNTIME_DIR are honored. Without a
// usable runtime dir a private directory under the system temp dir is
// created instead.
func socketDir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}
	if dir := xdg.RuntimeDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("tidal-%d", os.Getuid()))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("ipc: no usable runtime directory: %w", err)
	}
	return dir, nil
}
