// Package preflight provides readiness checks for the paths and services a
// conversion drain depends on.
//
// The CLI "editpdf health" command runs RunAll and prints one row per check.
// The converter check is skipped when no converter URL is configured.
package preflight
