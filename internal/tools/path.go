package tools

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ResolvePath canonicalizes path and validates it against the allowed
// prefixes. Relative paths are rooted at the project root. Symlinks are
// resolved before the containment check; for targets that do not exist yet
// the deepest existing ancestor is canonicalized instead. The returned path
// is safe to hand to the filesystem.
func (p *Policy) ResolvePath(path string) (string, error) {
	var resolved string
	if filepath.IsAbs(path) {
		resolved = filepath.Clean(path)
	} else {
		resolved = filepath.Clean(filepath.Join(p.ProjectRoot, path))
	}

	absResolved, _ := filepath.Abs(resolved)
	real, err := filepath.EvalSymlinks(absResolved)
	if err != nil {
		if os.IsNotExist(err) {
			// A broken symlink still Lstats cleanly; validate its target
			// instead of the link itself.
			if linfo, lerr := os.Lstat(absResolved); lerr == nil && linfo.Mode()&os.ModeSymlink != 0 {
				target, readErr := os.Readlink(absResolved)
				if readErr != nil {
					return "", fmt.Errorf("cannot resolve symlink")
				}
				if !filepath.IsAbs(target) {
					target = filepath.Join(filepath.Dir(absResolved), target)
				}
				real, err = resolveThroughExistingAncestors(filepath.Clean(target))
				if err != nil {
					slog.Warn("security.broken_symlink_resolve_failed", "path", path, "target", target)
					return "", fmt.Errorf("cannot resolve broken symlink target")
				}
			} else {
				// Truly non-existent: canonicalize through existing
				// ancestors so intermediate symlinks cannot smuggle the
				// path outside the jail.
				real, err = resolveThroughExistingAncestors(absResolved)
				if err != nil {
					return "", fmt.Errorf("cannot resolve path")
				}
			}
		} else {
			slog.Warn("security.path_resolve_failed", "path", path, "error", err)
			return "", fmt.Errorf("cannot resolve path")
		}
	}

	if !p.insideAllowed(real) {
		slog.Warn("security.path_escape", "path", path, "resolved", real, "root", p.ProjectRoot)
		return "", fmt.Errorf("path is outside the allowed directories")
	}

	// A symlink component whose parent is writable can be rebound between
	// validation and use.
	if hasMutableSymlinkParent(real) {
		slog.Warn("security.mutable_symlink_parent", "path", path, "resolved", real)
		return "", fmt.Errorf("path contains a mutable symlink component")
	}

	if err := checkHardlink(real); err != nil {
		return "", err
	}

	return real, nil
}

func (p *Policy) insideAllowed(real string) bool {
	for _, prefix := range p.AllowedPrefixes {
		canonical, err := filepath.EvalSymlinks(prefix)
		if err != nil {
			canonical = prefix
		}
		if isPathInside(real, canonical) {
			return true
		}
	}
	return false
}

// isPathInside checks whether child is inside or equal to parent directory.
func isPathInside(child, parent string) bool {
	if child == parent {
		return true
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}

// resolveThroughExistingAncestors canonicalizes a path by finding the deepest
// existing ancestor, resolving its symlinks, then appending the remaining
// non-existent components.
func resolveThroughExistingAncestors(target string) (string, error) {
	if real, err := filepath.EvalSymlinks(target); err == nil {
		return real, nil
	}

	current := target
	var tail []string
	for {
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		tail = append([]string{filepath.Base(current)}, tail...)
		current = parent

		if realParent, err := filepath.EvalSymlinks(current); err == nil {
			result := realParent
			for _, component := range tail {
				result = filepath.Join(result, component)
			}
			return result, nil
		}
	}
	return filepath.Clean(target), nil
}

// hasMutableSymlinkParent checks if any component of the resolved path is a
// symlink whose parent directory is writable by the current process.
func hasMutableSymlinkParent(path string) bool {
	clean := filepath.Clean(path)
	components := strings.Split(clean, string(filepath.Separator))
	current := string(filepath.Separator)
	for _, comp := range components {
		if comp == "" {
			continue
		}
		current = filepath.Join(current, comp)
		info, err := os.Lstat(current)
		if err != nil {
			break // non-existent, stop checking
		}
		if info.Mode()&os.ModeSymlink != 0 {
			parentDir := filepath.Dir(current)
			if syscall.Access(parentDir, 0x2 /* W_OK */) == nil {
				return true
			}
		}
	}
	return false
}

// checkHardlink rejects regular files with nlink > 1. Directories naturally
// have nlink > 1 and are exempt.
func checkHardlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return nil // non-existent files fail later at read/write
	}
	if info.IsDir() {
		return nil
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		if stat.Nlink > 1 {
			slog.Warn("security.hardlink_rejected", "path", path, "nlink", stat.Nlink)
			return fmt.Errorf("hardlinked file not allowed")
		}
	}
	return nil
}
