package bridge

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/omnigate/omnigate/internal/consts"
)

// SocketPath returns the unix socket address for one channel instance,
// e.g. ~/.omnigate/run/discord-main.sock.
func SocketPath(channelType, instance string) string {
	return filepath.Join(consts.RunDir(), fmt.Sprintf("%s-%s.sock", channelType, instance))
}

// prepareSocket makes sure the run directory exists and removes a stale
// socket file left behind by a previous process. A socket that still
// accepts connections belongs to a live instance and is left alone.
func prepareSocket(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat socket: %w", err)
	}

	conn, err := net.Dial("unix", path)
	if err == nil {
		conn.Close()
		return fmt.Errorf("socket %s is in use by another instance", path)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}

// restrictSocket waits for the socket file to show up after an async bind
// and chmods it to owner-only.
func restrictSocket(path string) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			return os.Chmod(path, 0o600)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("socket %s never appeared", path)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
