// Package embedded holds files compiled into the evalia binary.
package embedded

import (
	"embed"
)

// FS embeds the demo seed datasets.
//
//go:embed seed/*.yaml
var FS embed.FS

// DemoSeed is the path of the default seed dataset inside FS.
const DemoSeed = "seed/demo.yaml"
