// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

// SandboxType identifies the application sandbox the imago process runs
// inside. Container engines live on the host, so a sandboxed process has
// to escape through the sandbox's spawn portal to reach them.
type SandboxType string

const (
	// SandboxNone means the process runs directly on the host.
	SandboxNone SandboxType = ""
	// SandboxFlatpak means the process runs inside a Flatpak sandbox.
	SandboxFlatpak SandboxType = "flatpak"
	// SandboxSnap means the process runs inside a Snap sandbox.
	SandboxSnap SandboxType = "snap"
)

// The sandbox cannot change during the process lifetime, so detection
// runs once. detectSandboxFrom must not panic: sync.OnceValue would
// replay the panic on every subsequent call.
var detectOnce = sync.OnceValue(func() SandboxType {
	return detectSandboxFrom(os.Getenv, statFile)
})

// DetectSandbox reports which sandbox, if any, the current process runs
// in. Flatpak is recognized by the /.flatpak-info file, Snap by the
// SNAP_NAME environment variable. The result is cached.
func DetectSandbox() SandboxType {
	return detectOnce()
}

// IsInSandbox reports whether the current process is sandboxed.
func IsInSandbox() bool {
	return DetectSandbox() != SandboxNone
}

// SpawnCommandFor returns the host-spawn command for a sandbox type, or
// an empty string when no escape is needed.
func SpawnCommandFor(st SandboxType) string {
	switch st {
	case SandboxFlatpak:
		return "flatpak-spawn"
	case SandboxSnap:
		return "snap"
	default:
		return ""
	}
}

// SpawnArgsFor returns the arguments that precede the engine binary when
// spawning through the sandbox portal for the given type.
func SpawnArgsFor(st SandboxType) []string {
	switch st {
	case SandboxFlatpak:
		return []string{"--host"}
	case SandboxSnap:
		return []string{"run", "--shell"}
	default:
		return nil
	}
}

// detectSandboxFrom performs the detection against injected environment
// and filesystem lookups so tests can exercise each branch without
// touching process state.
func detectSandboxFrom(lookupEnv func(string) string, statFile func(string) error) SandboxType {
	// Flatpak wins when both markers are somehow present.
	if err := statFile("/.flatpak-info"); err == nil {
		return SandboxFlatpak
	}
	if lookupEnv("SNAP_NAME") != "" {
		return SandboxSnap
	}
	return SandboxNone
}

func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
