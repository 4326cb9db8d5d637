// Package fsutil provides file system utility functions shared by the
// assembler and the verifier.
package fsutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// DirNonEmpty reports whether path is a directory containing at least one entry.
func DirNonEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CopyFile copies a single file, preserving the source permission bits.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}

	return out.Close()
}

// CopyTree recursively copies the directory tree at src into dst, preserving
// permission bits and re-creating symlinks as symlinks.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read symlink %s: %w", path, err)
			}
			return os.Symlink(link, target)
		default:
			return CopyFile(path, target)
		}
	})
}

// MarkExecutable applies the executable permission bits to path.
// Archive extraction does not guarantee bit preservation, so runtime
// binaries and launchers are marked explicitly on POSIX targets.
func MarkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return os.Chmod(path, info.Mode().Perm()|0o111)
}

// MarkTreeExecutable applies executable bits to every regular file under
// root whose name matches one of the given prefixes, or to every regular
// file when no prefixes are given.
func MarkTreeExecutable(root string, prefixes ...string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if len(prefixes) > 0 {
			matched := false
			for _, prefix := range prefixes {
				if strings.HasPrefix(d.Name(), prefix) {
					matched = true
					break
				}
			}
			if !matched {
				return nil
			}
		}
		return MarkExecutable(path)
	})
}

// IsExecutable reports whether any executable bit is set on path.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().Perm()&0o111 != 0
}

// HasCRLFEndings reports whether every newline in data is preceded by a
// carriage return. Data with no newlines at all reports false.
func HasCRLFEndings(data []byte) bool {
	n := bytes.Count(data, []byte("\n"))
	return n > 0 && n == bytes.Count(data, []byte("\r\n"))
}

// HasLFOnlyEndings reports whether data contains newlines and no carriage
// returns at all.
func HasLFOnlyEndings(data []byte) bool {
	return bytes.Contains(data, []byte("\n")) && !bytes.Contains(data, []byte("\r"))
}

// TreeSize returns the total size in bytes of all regular files under root.
func TreeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}
