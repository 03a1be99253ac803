package assets

import _ "embed"

//go:embed info.md
var info string

// Info returns the Markdown text for /info: hydration facts and links.
func Info() string {
	return info
}
