// SPDX-License-Identifier: MPL-2.0

// Package testutil provides deterministic test doubles shared across
// packages, most notably the Clock abstraction used to make build
// timestamps reproducible in tests.
package testutil
