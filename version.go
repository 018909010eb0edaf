package statecraft

import _ "embed"

// Version is the release version of statecraft.
//
//go:embed VERSION
var Version string
