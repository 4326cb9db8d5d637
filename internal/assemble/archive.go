package assemble

import (
	"archive/tar"
	"compress/gzip"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/distkit/distkit/internal/manifest"
)

// WriteArchive packs an assembled package tree into a gzipped tarball for
// transfer, and returns the archive's blake3 digest. The tree itself is not
// modified; the archive is written outside the package root.
func WriteArchive(layout manifest.Layout, outputPath string) (string, error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	hasher := blake3.New()
	gzWriter := gzip.NewWriter(io.MultiWriter(out, hasher))
	tarWriter := tar.NewWriter(gzWriter)

	err = filepath.WalkDir(layout.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(layout.Root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		var link string
		if d.Type()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tarWriter, f)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive package tree: %w", err)
	}

	if err := tarWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize tar stream: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize gzip stream: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}

	return "blake3:" + hex.EncodeToString(hasher.Sum(nil)), nil
}
