package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// JournalDirName is the conventional journal directory.
const JournalDirName = ".synclist"

// FindJournal looks upwards from startDir for a JournalDirName directory and
// returns its absolute path.
func FindJournal(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		candidate := filepath.Join(dir, JournalDirName)
		if isDir(candidate) {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no %s directory found above %s", JournalDirName, abs)
}

// ResolveJournal returns dir when set, otherwise the nearest journal above
// the working directory, otherwise JournalDirName in the working directory.
func ResolveJournal(dir string) string {
	if dir != "" {
		return dir
	}
	if found, err := FindJournal("."); err == nil {
		return found
	}
	return JournalDirName
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
