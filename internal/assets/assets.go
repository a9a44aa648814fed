// Package assets embeds the prompt files shipped with chart-runner.
// The driver's default prompt lives here so `prompts install` and
// config.DefaultConfig read the same text.
package assets

import (
	"embed"
	"strings"
)

//go:embed prompts
var Prompts embed.FS

// DefaultPrompt returns the embedded chart-to-table prompt.
func DefaultPrompt() string {
	data, err := Prompts.ReadFile("prompts/chart_table.txt")
	if err != nil {
		// The file is compiled in; failure here means a broken build.
		panic(err)
	}
	return strings.TrimRight(string(data), "\n")
}
