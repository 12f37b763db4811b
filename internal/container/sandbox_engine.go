// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"

	"github.com/imago-dev/imago/pkg/platform"
)

// SandboxAwareEngine wraps a container Engine to handle execution from within
// application sandboxes (Flatpak, Snap).
//
// When running inside a sandbox, container engines like Docker/Podman run on
// the host system, not inside the sandbox. Paths inside the sandbox (the build
// context, the generated Dockerfile) don't correspond to the same paths on the
// host, so builds must be spawned on the host via the sandbox's host spawn
// mechanism (e.g., flatpak-spawn --host).
//
// When not in a sandbox, this wrapper passes through to the underlying engine
// without modification.
type SandboxAwareEngine struct {
	wrapped     Engine
	sandboxType platform.SandboxType
}

// NewSandboxAwareEngine wraps an Engine with sandbox awareness.
// If not running in a sandbox, the engine is returned unwrapped.
func NewSandboxAwareEngine(engine Engine) Engine {
	sandboxType := platform.DetectSandbox()
	if sandboxType == platform.SandboxNone {
		return engine
	}
	return &SandboxAwareEngine{
		wrapped:     engine,
		sandboxType: sandboxType,
	}
}

// newSandboxAwareEngineForTesting creates a SandboxAwareEngine with a specific
// sandbox type for testing purposes.
func newSandboxAwareEngineForTesting(engine Engine, sandboxType platform.SandboxType) *SandboxAwareEngine {
	return &SandboxAwareEngine{
		wrapped:     engine,
		sandboxType: sandboxType,
	}
}

// Name returns the wrapped engine name.
func (e *SandboxAwareEngine) Name() string {
	return e.wrapped.Name()
}

// Available checks if the wrapped engine is available.
// The spawn command overhead doesn't affect availability status.
func (e *SandboxAwareEngine) Available() bool {
	return e.wrapped.Available()
}

// Version returns the wrapped engine version.
func (e *SandboxAwareEngine) Version(ctx context.Context) (string, error) {
	return e.wrapped.Version(ctx)
}

// Build builds an image from a Dockerfile.
// In sandbox mode, the build command is executed via the host spawn mechanism.
func (e *SandboxAwareEngine) Build(ctx context.Context, opts BuildOptions) error {
	base, ok := e.getBaseCLIEngine()
	if e.sandboxType == platform.SandboxNone || !ok {
		return e.wrapped.Build(ctx, opts)
	}

	fullArgs := e.buildSpawnArgs(base.BinaryPath(), base.BuildArgs(opts))

	cmd := base.execCommand(ctx, fullArgs[0], fullArgs[1:]...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	if err := cmd.Run(); err != nil {
		return &BuildError{Engine: e.wrapped.Name(), Tag: opts.Tag, Target: opts.Target, Err: err}
	}

	return nil
}

// ImageExists checks if an image exists.
func (e *SandboxAwareEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	base, ok := e.getBaseCLIEngine()
	if e.sandboxType == platform.SandboxNone || !ok {
		return e.wrapped.ImageExists(ctx, image)
	}

	fullArgs := e.buildSpawnArgs(base.BinaryPath(), []string{"image", "inspect", image})
	err := base.execCommand(ctx, fullArgs[0], fullArgs[1:]...).Run()
	return err == nil, nil
}

// RemoveImage removes an image.
func (e *SandboxAwareEngine) RemoveImage(ctx context.Context, image string, force bool) error {
	base, ok := e.getBaseCLIEngine()
	if e.sandboxType == platform.SandboxNone || !ok {
		return e.wrapped.RemoveImage(ctx, image, force)
	}

	args := []string{"rmi"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, image)

	fullArgs := e.buildSpawnArgs(base.BinaryPath(), args)
	if err := base.execCommand(ctx, fullArgs[0], fullArgs[1:]...).Run(); err != nil {
		return err
	}
	return nil
}

// buildSpawnArgs constructs the full argument list for spawning a command on the host.
// For Flatpak: ["flatpak-spawn", "--host", <binary>, <args...>]
// For Snap: ["snap", "run", "--shell", <binary>, <args...>]
func (e *SandboxAwareEngine) buildSpawnArgs(binary string, args []string) []string {
	spawnCmd, spawnArgs := e.getSpawnInfo()

	result := make([]string, 0, 1+len(spawnArgs)+1+len(args))
	result = append(result, spawnCmd)
	result = append(result, spawnArgs...)
	result = append(result, binary)
	result = append(result, args...)

	return result
}

// getSpawnInfo returns the spawn command and arguments for the engine's
// stored sandbox type, not the global detection, so tests can override it.
func (e *SandboxAwareEngine) getSpawnInfo() (cmd string, args []string) {
	return platform.SpawnCommandFor(e.sandboxType), platform.SpawnArgsFor(e.sandboxType)
}

// getBaseCLIEngine attempts to extract the BaseCLIEngine from the wrapped engine.
// This is needed to access argument building methods.
func (e *SandboxAwareEngine) getBaseCLIEngine() (*BaseCLIEngine, bool) {
	switch engine := e.wrapped.(type) {
	case *PodmanEngine:
		return engine.BaseCLIEngine, true
	case *DockerEngine:
		return engine.BaseCLIEngine, true
	default:
		return nil, false
	}
}
