// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for imago.
//
// This package implements the Cobra command hierarchy for the imago CLI:
// the root command plus subcommands for building targets, inspecting build
// plans, checking Imagofiles, and showing configuration.
package cmd
