package combine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var separatorLine = "# " + strings.Repeat("-", 78)

// header precedes each file body in the combined output.
func header(rel string) string {
	return fmt.Sprintf("\n\n%s\n# Source: %s #\n\n", separatorLine, rel)
}

// processSingleFile reads root/rel and formats it with its header.
func processSingleFile(root, rel string) (FileContent, error) {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	data, err := os.ReadFile(abs)
	if err != nil {
		return FileContent{}, fmt.Errorf("error reading file %s: %w", abs, err)
	}
	return FileContent{Path: rel, Content: header(rel) + string(data)}, nil
}
