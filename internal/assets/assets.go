// Package assets provides the built-in stylesheets for standalone pages.
//
// Styles are embedded at compile time under styles/{name}.css and are
// selected by name, without extension.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed styles/*.css
var styles embed.FS

// DefaultStyleName is the name of the general purpose built-in style.
const DefaultStyleName = "default"

// LoadStyle returns the CSS of the built-in style name.
// Returns ErrInvalidAssetName if the name contains path separators or dots,
// and ErrStyleNotFound if no such style is embedded.
func LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := styles.ReadFile("styles/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}

	return string(content), nil
}

// StyleNames lists the built-in styles in sorted order.
func StyleNames() []string {
	entries, err := fs.ReadDir(styles, "styles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".css"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
