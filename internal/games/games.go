// Package games embeds the bundled .card programs.
package games

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed *.card
var files embed.FS

// SimpleScopaName is the bundled two-player scopa variant.
const SimpleScopaName = "simple_scopa"

// Source returns the text of the bundled game called name.
func Source(name string) (string, error) {
	data, err := files.ReadFile(name + ".card")
	if err != nil {
		return "", fmt.Errorf("bundled game %q: %w", name, err)
	}
	return string(data), nil
}

// MustSource is Source for known-good names; it panics on error.
func MustSource(name string) string {
	src, err := Source(name)
	if err != nil {
		panic(err)
	}
	return src
}

// Names lists the bundled games.
func Names() []string {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".card"))
	}
	sort.Strings(names)
	return names
}
