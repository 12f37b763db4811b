// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the imago configuration.
//
// Configuration lives in a CUE file (config.cue) under the platform config
// directory. The file is validated against an embedded CUE schema, merged
// over built-in defaults via Viper, and decoded into a typed Config. All
// fields are optional; a missing config file is not an error.
package config
