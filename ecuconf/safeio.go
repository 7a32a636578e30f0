package ecuconf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ReadTrustAnchorFile reads a trust-anchor or wrapped-key file by path,
// guarding against directory traversal in the file name component.
func ReadTrustAnchorFile(path string) ([]byte, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return readFileFromDir(dir, name)
}

func readFileFromDir(dir, name string) ([]byte, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid file name: %q", name)
	}
	return fs.ReadFile(os.DirFS(dir), name)
}
