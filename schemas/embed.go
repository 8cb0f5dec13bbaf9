// Package schemas embeds the JSON Schemas so binaries can validate configs
// and wire messages without a schema directory on disk.
package schemas

import "embed"

//go:embed *.schema.json
var FS embed.FS
