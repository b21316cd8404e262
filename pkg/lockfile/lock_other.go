//go:build !unix

package lockfile

import (
	"errors"
	"os"
)

// tryLock creates path exclusively. A holder that dies without Release
// leaves the file behind and it must be removed by hand.
func tryLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, ErrAlreadyLocked
	}
	return f, err
}

func unlock(f *os.File, path string) error {
	return errors.Join(f.Close(), os.Remove(path))
}
