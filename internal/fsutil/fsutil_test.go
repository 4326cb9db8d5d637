package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirChecks(t *testing.T) {
	tempDir := t.TempDir()

	assert.True(t, DirExists(tempDir))
	assert.False(t, DirNonEmpty(tempDir))
	assert.False(t, DirExists(filepath.Join(tempDir, "missing")))

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "a.txt"), []byte("x"), 0o644))
	assert.True(t, DirNonEmpty(tempDir))
	assert.False(t, DirExists(filepath.Join(tempDir, "a.txt")))
	assert.True(t, FileExists(filepath.Join(tempDir, "a.txt")))
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")

	require.NoError(t, os.MkdirAll(filepath.Join(src, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "run"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "readme.txt"), []byte("hello"), 0o644))

	require.NoError(t, CopyTree(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	if runtime.GOOS != "windows" {
		assert.True(t, IsExecutable(filepath.Join(dst, "bin", "run")))
	}
}

func TestCopyTreePreservesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")

	require.NoError(t, os.WriteFile(filepath.Join(src, "real"), []byte("data"), 0o644))
	require.NoError(t, os.Symlink("real", filepath.Join(src, "link")))

	require.NoError(t, CopyTree(src, dst))

	link, err := os.Readlink(filepath.Join(dst, "link"))
	require.NoError(t, err)
	assert.Equal(t, "real", link)
}

func TestMarkExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}

	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "tool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644))
	assert.False(t, IsExecutable(path))

	require.NoError(t, MarkExecutable(path))
	assert.True(t, IsExecutable(path))
}

func TestMarkTreeExecutableWithPrefixes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}

	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "python3.12"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "LICENSE"), nil, 0o644))

	require.NoError(t, MarkTreeExecutable(tempDir, "python"))
	assert.True(t, IsExecutable(filepath.Join(tempDir, "python3.12")))
	assert.False(t, IsExecutable(filepath.Join(tempDir, "LICENSE")))
}

func TestLineEndingChecks(t *testing.T) {
	assert.True(t, HasCRLFEndings([]byte("@echo off\r\nexit /b 0\r\n")))
	assert.False(t, HasCRLFEndings([]byte("#!/bin/sh\nexit 0\n")))
	assert.False(t, HasCRLFEndings([]byte("mixed\r\nendings\n")))
	assert.False(t, HasCRLFEndings([]byte("no newline")))

	assert.True(t, HasLFOnlyEndings([]byte("#!/bin/sh\nexit 0\n")))
	assert.False(t, HasLFOnlyEndings([]byte("@echo off\r\n")))
	assert.False(t, HasLFOnlyEndings([]byte("no newline")))
}

func TestTreeSize(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "a"), make([]byte, 100), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "sub", "b"), make([]byte, 50), 0o644))

	size, err := TreeSize(tempDir)
	require.NoError(t, err)
	assert.Equal(t, int64(150), size)
}
