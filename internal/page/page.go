// Package page supplies the HTML served for page requests.
package page

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed index.html
var defaultPage []byte

// Default returns the built-in page.
func Default() []byte {
	return defaultPage
}

// Load reads the page from path, or returns Default when path is empty.
func Load(path string) ([]byte, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("page: read %s: %w", path, err)
	}
	return data, nil
}
