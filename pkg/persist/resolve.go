package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
)

// Layout of a storage root.
const (
	PreferencesFile = "preferences.json"
	NodeTreeDir     = "nodetrees"
)

// SystemDir is the system-wide storage candidate.
const SystemDir = "/var/lib/visiongraph"

// NodeTreeFile returns the document name of a profile's nodetree.
func NodeTreeFile(profile int) string {
	return fmt.Sprintf("%s/nodetree_%d.json", NodeTreeDir, profile)
}

// Candidates returns the storage roots to try, in order: override when set,
// then the system directory, then the user data directory.
func Candidates(override string) []string {
	var out []string
	if override != "" {
		out = append(out, override)
	}
	return append(out, SystemDir, filepath.Join("~", ".local", "share", "visiongraph"))
}

// Resolve returns the first candidate that can be prepared as a storage
// root. Preparing creates the nodetree directory, one file per profile and
// the preferences file; existing files are left untouched. The returned
// root is absolute with symlinks resolved. ok is false when no candidate
// works.
func Resolve(candidates []string, logger *log.Logger) (root string, ok bool) {
	if logger == nil {
		logger = log.Default()
	}
	for _, c := range candidates {
		dir, err := prepare(c)
		if err != nil {
			logger.Debug("storage candidate rejected", "path", c, "err", err)
			continue
		}
		logger.Debug("storage resolved", "path", dir)
		return dir, true
	}
	return "", false
}

func prepare(candidate string) (string, error) {
	dir, err := expand(candidate)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dir, NodeTreeDir), 0755); err != nil {
		return "", err
	}
	if dir, err = filepath.EvalSymlinks(dir); err != nil {
		return "", err
	}

	names := []string{PreferencesFile}
	for n := apperr.MinProfile; n <= apperr.MaxProfile; n++ {
		names = append(names, NodeTreeFile(n))
	}
	for _, name := range names {
		if err := touch(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// expand resolves a leading "~" and makes path absolute.
func expand(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

// touch creates path if it does not exist and checks that it is writable.
func touch(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}
