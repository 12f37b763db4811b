// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer for container image
// builders (Docker/Podman).
package container

import (
	"context"
	"fmt"
	"io"
)

// Engine defines the interface for image build operations
type Engine interface {
	// Name returns the engine name (docker or podman)
	Name() string
	// Available checks if the engine is available on the system
	Available() bool
	// Version returns the engine version
	Version(ctx context.Context) (string, error)

	// Build builds an image from a Dockerfile
	Build(ctx context.Context, opts BuildOptions) error
	// ImageExists checks if an image exists locally
	ImageExists(ctx context.Context, image string) (bool, error)
	// RemoveImage removes an image
	RemoveImage(ctx context.Context, image string, force bool) error
}

// BuildOptions contains options for building an image
type BuildOptions struct {
	// ContextDir is the build context directory
	ContextDir string
	// Dockerfile is the path to the Dockerfile (relative to ContextDir)
	Dockerfile string
	// Target selects a stage of a multi-stage Dockerfile
	Target string
	// Tag is the image tag
	Tag string
	// BuildArgs are build-time variables
	BuildArgs map[string]string
	// NoCache disables the build cache
	NoCache bool
	// Stdout is where to write build output
	Stdout io.Writer
	// Stderr is where to write build errors
	Stderr io.Writer
}

// EngineType identifies the container engine type
type EngineType string

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
)

// ErrEngineNotAvailable is returned when a container engine is not available
type ErrEngineNotAvailable struct {
	Engine string
	Reason string
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a new container engine based on preference, falling
// back to the other engine when the preferred one is unavailable.
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return NewSandboxAwareEngine(engine), nil
		}
		dockerEngine := NewDockerEngine()
		if dockerEngine.Available() {
			return NewSandboxAwareEngine(dockerEngine), nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	case EngineTypeDocker:
		engine := NewDockerEngine()
		if engine.Available() {
			return NewSandboxAwareEngine(engine), nil
		}
		podmanEngine := NewPodmanEngine()
		if podmanEngine.Available() {
			return NewSandboxAwareEngine(podmanEngine), nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine tries to find an available container engine.
// Docker is tried first since it is the most common build backend.
func AutoDetectEngine() (Engine, error) {
	docker := NewDockerEngine()
	if docker.Available() {
		return NewSandboxAwareEngine(docker), nil
	}

	podman := NewPodmanEngine()
	if podman.Available() {
		return NewSandboxAwareEngine(podman), nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
