package export

import (
	"errors"
	"fmt"
	"os"
)

// ErrWriteFailed wraps any failure to publish an artifact. The previous
// artifact, if any, stays visible; readers never see a partial file.
var ErrWriteFailed = errors.New("write failed")

// writeAtomic publishes data at path via a temp file and a single rename.
// On rename failure the temp file is removed.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", ErrWriteFailed, path, err)
	}
	return nil
}
