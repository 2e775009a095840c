// Package scripts embeds the policy scripts shipped with targetgraph.
//
// A policy script runs once per sync with a `targets` global and the
// mark_external, mark_workspace and mark_strict builtins. See
// internal/runtime for the full set of globals.
package scripts

import "embed"

// FS holds policy/*.risor.
//
//go:embed policy/*.risor
var FS embed.FS

// ThirdPartyPolicy is the path of the example policy inside FS.
const ThirdPartyPolicy = "policy/third_party.risor"
