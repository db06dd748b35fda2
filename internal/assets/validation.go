package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName checks that a style name is safe to join into an
// embedded path. Empty names and names with separators or dots are
// rejected, so "../x" and "x.css" never reach the filesystem.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
