// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// This package contains utilities for handling platform-specific concerns,
// such as detecting application sandboxes (Flatpak, Snap) that require
// container engine commands to be spawned on the host.
package platform
