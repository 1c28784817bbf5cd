package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// TempFilePrefix is the prefix used for in-flight journal writes.
	// It never matches EntryPattern, so watchers ignore half-written entries.
	TempFilePrefix = "synclist-tmp-"
)

// ErrEntryExists means another writer already took the sequence number.
var ErrEntryExists = errors.New("journal entry already exists")

// writeEntry publishes data under filename without ever replacing an existing
// entry: the content is fsynced to a temp file, hard-linked into place (which
// fails if the name is taken) and the directory is fsynced so the new name
// survives a crash.
func writeEntry(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer os.Remove(tmpName) // the entry keeps its own link

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Link(tmpName, filename); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", filepath.Base(filename), ErrEntryExists)
		}
		return fmt.Errorf("failed to publish entry %s: %w", filepath.Base(filename), err)
	}
	return syncDir(dir)
}

// syncDir makes a directory's entries durable. Windows cannot fsync directories.
func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open journal directory: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync journal directory: %w", err)
	}
	return nil
}
