package testutil

import (
	"os"
	"testing"
)

// RequireVM skips the test if the SETSYNC_VM_TEST environment variable is not set.
// Tests that load real nftables sets need root and a disposable kernel.
func RequireVM(t *testing.T) {
	t.Helper()
	if os.Getenv("SETSYNC_VM_TEST") == "" {
		t.Skip("Skipping test: requires SETSYNC_VM_TEST environment")
	}
}
