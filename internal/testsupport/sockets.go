package testsupport

import (
	"net"
	"path/filepath"
	"strings"
	"testing"
)

// RequireUnixSockets skips the test when the environment refuses unix domain
// sockets, which some sandboxes do.
func RequireUnixSockets(t testing.TB) {
	t.Helper()

	l, err := net.Listen("unix", filepath.Join(t.TempDir(), "probe.sock"))
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping: unix sockets unavailable: %v", err)
		}
		t.Fatalf("probe unix socket: %v", err)
	}
	l.Close()
}
