// Package schemas embeds the JSON Schema documents that every LLM payload is checked against.
package schemas

import "embed"

// Files holds one <kind>.schema.json document per analysis payload
//
//go:embed *.schema.json
var Files embed.FS
