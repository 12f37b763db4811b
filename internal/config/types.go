// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ContainerEngineAuto picks the first available engine (Docker, then Podman).
	ContainerEngineAuto ContainerEngine = "auto"
	// ContainerEngineDocker uses Docker as the build backend.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the build backend.
	ContainerEnginePodman ContainerEngine = "podman"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidCacheDirPath is returned when a CacheDirPath value is whitespace-only.
	ErrInvalidCacheDirPath = errors.New("invalid cache dir path")
	// ErrInvalidTagPrefix is returned when a TagPrefix value is not a valid image repository prefix.
	ErrInvalidTagPrefix = errors.New("invalid tag prefix")
	// ErrInvalidConcurrency is returned when a Concurrency value is out of range.
	ErrInvalidConcurrency = errors.New("invalid concurrency")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container build backend to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// CacheDirPath represents a filesystem path to the build cache directory.
	// The zero value ("") is valid and means "use default cache directory".
	// Non-zero values must not be whitespace-only.
	CacheDirPath string

	// InvalidCacheDirPathError is returned when a CacheDirPath value is
	// non-empty but whitespace-only. It wraps ErrInvalidCacheDirPath.
	InvalidCacheDirPathError struct {
		Value CacheDirPath
	}

	// TagPrefix represents the image repository prefix used when tagging
	// built targets (e.g., "imago" yields tags like "imago:abc123").
	TagPrefix string

	// InvalidTagPrefixError is returned when a TagPrefix value contains
	// characters not allowed in an image repository name.
	// It wraps ErrInvalidTagPrefix for errors.Is() compatibility.
	InvalidTagPrefixError struct {
		Value TagPrefix
	}

	// InvalidConfigError aggregates one or more validation failures for a
	// loaded Config. It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		Errs []error
	}

	// Config is the root imago configuration.
	Config struct {
		// ContainerEngine selects the build backend.
		ContainerEngine ContainerEngine `mapstructure:"container_engine"`
		// CacheDir is where generated Dockerfiles and the build manifest live.
		CacheDir CacheDirPath `mapstructure:"cache_dir"`
		// TagPrefix is the image repository prefix for built targets.
		TagPrefix TagPrefix `mapstructure:"tag_prefix"`
		// Concurrency bounds how many image targets build in parallel.
		Concurrency int `mapstructure:"concurrency"`
		// Verbose enables verbose output.
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineAuto,
		CacheDir:        "",
		TagPrefix:       "imago",
		Concurrency:     4,
		Verbose:         false,
	}
}

// Validate checks that the ContainerEngine is one of the known values.
func (e ContainerEngine) Validate() error {
	switch e {
	case ContainerEngineAuto, ContainerEngineDocker, ContainerEnginePodman:
		return nil
	default:
		return &InvalidContainerEngineError{Value: e}
	}
}

func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (must be %q, %q or %q)",
		string(e.Value), ContainerEngineAuto, ContainerEngineDocker, ContainerEnginePodman)
}

func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// Validate checks that a non-empty CacheDirPath is not whitespace-only.
func (p CacheDirPath) Validate() error {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return &InvalidCacheDirPathError{Value: p}
	}
	return nil
}

func (e *InvalidCacheDirPathError) Error() string {
	return fmt.Sprintf("invalid cache dir path %q (must not be whitespace-only)", string(e.Value))
}

func (e *InvalidCacheDirPathError) Unwrap() error { return ErrInvalidCacheDirPath }

// Validate checks that the TagPrefix is a plausible image repository name.
// Allowed: lowercase letters, digits, and the separators '.', '_', '-', '/',
// with an alphanumeric first and last character.
func (p TagPrefix) Validate() error {
	s := string(p)
	if s == "" {
		return &InvalidTagPrefixError{Value: p}
	}
	if !isRepoChar(s[0], false) || !isRepoChar(s[len(s)-1], false) {
		return &InvalidTagPrefixError{Value: p}
	}
	for i := 0; i < len(s); i++ {
		if !isRepoChar(s[i], true) {
			return &InvalidTagPrefixError{Value: p}
		}
	}
	return nil
}

func isRepoChar(c byte, allowSeparators bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case allowSeparators && (c == '.' || c == '_' || c == '-' || c == '/'):
		return true
	default:
		return false
	}
}

func (e *InvalidTagPrefixError) Error() string {
	return fmt.Sprintf("invalid tag prefix %q (must be a lowercase image repository name)", string(e.Value))
}

func (e *InvalidTagPrefixError) Unwrap() error { return ErrInvalidTagPrefix }

// Validate checks all fields and aggregates failures into an InvalidConfigError.
func (c *Config) Validate() error {
	var errs []error

	if err := c.ContainerEngine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.CacheDir.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.TagPrefix.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Concurrency < 1 || c.Concurrency > 64 {
		errs = append(errs, fmt.Errorf("%w: %d (must be between 1 and 64)", ErrInvalidConcurrency, c.Concurrency))
	}

	if len(errs) > 0 {
		return &InvalidConfigError{Errs: errs}
	}
	return nil
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
