package cli

import (
	"errors"
	"os"

	"github.com/roach88/mirror/internal/descriptor"
)

// loadTable loads descriptors and maps failures onto CLI error codes.
func loadTable(f *OutputFormatter, path string) (*descriptor.Table, error) {
	specs, err := descriptor.Load(path)
	if err != nil {
		return nil, loadFailure(f, path, err)
	}
	table, err := descriptor.Build(specs)
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeInvalid, "invalid descriptors", err)
	}
	f.VerboseLog("Loaded %d descriptor entries from %s", table.Len(), path)
	return table, nil
}

func loadFailure(f *OutputFormatter, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "descriptors not found: "+path, err)
	}
	return f.Fail(ExitCommandError, ErrCodeLoadFailed, "cannot load descriptors", err)
}
