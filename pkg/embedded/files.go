// pkg/embedded/files.go
package embedded

import (
	"embed"
	"io/fs"
)

//go:embed config.yaml
//go:embed data/signatures/known_hashes.txt
var EmbeddedFiles embed.FS

// GetFileContent returns the content of an embedded data file.
func GetFileContent(path string) ([]byte, error) {
	return EmbeddedFiles.ReadFile(path)
}

// GetFS exposes the embedded file system.
func GetFS() fs.FS {
	return EmbeddedFiles
}
