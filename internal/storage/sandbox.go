// Package storage provides sandboxed file operations and blob storage for
// guidesync. All file operations are restricted to configured directories
// to prevent path traversal.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox provides file operations confined to a base directory.
// All paths must resolve within the sandbox.
type Sandbox struct {
	baseDir string
}

// NewSandbox creates a new Sandbox rooted at the given base directory.
// The base directory is created if it doesn't exist.
func NewSandbox(baseDir string) (*Sandbox, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0750); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}

	return &Sandbox{baseDir: absPath}, nil
}

// BaseDir returns the absolute path to the sandbox base directory.
func (s *Sandbox) BaseDir() string {
	return s.baseDir
}

// ResolvePath resolves a relative path within the sandbox.
// Returns an error if the path would escape the sandbox or is absolute.
func (s *Sandbox) ResolvePath(relativePath string) (string, error) {
	if filepath.IsAbs(relativePath) {
		return "", fmt.Errorf("path escapes sandbox: %s (absolute paths not allowed)", relativePath)
	}

	cleanPath := filepath.Clean(relativePath)
	fullPath := filepath.Join(s.baseDir, cleanPath)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	if !strings.HasPrefix(absPath, s.baseDir+string(filepath.Separator)) && absPath != s.baseDir {
		return "", fmt.Errorf("path escapes sandbox: %s", relativePath)
	}

	return absPath, nil
}

// Exists checks if a path exists within the sandbox.
func (s *Sandbox) Exists(relativePath string) (bool, error) {
	path, err := s.ResolvePath(relativePath)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking path: %w", err)
	}
	return true, nil
}

// ReadFile reads a file from within the sandbox.
func (s *Sandbox) ReadFile(relativePath string) ([]byte, error) {
	path, err := s.ResolvePath(relativePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Remove removes a file or empty directory within the sandbox.
func (s *Sandbox) Remove(relativePath string) error {
	path, err := s.ResolvePath(relativePath)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing path: %w", err)
	}
	return nil
}

// AtomicWrite writes data to a file atomically within the sandbox by
// writing a temporary file and renaming it into place.
func (s *Sandbox) AtomicWrite(relativePath string, data []byte) error {
	targetPath, err := s.ResolvePath(relativePath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(targetPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	tempName := fmt.Sprintf(".%s.%s.tmp", filepath.Base(relativePath), randomHex(8))
	tempPath := filepath.Join(dir, tempName)

	if err := os.WriteFile(tempPath, data, 0640); err != nil {
		return fmt.Errorf("writing temporary file: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming to target: %w", err)
	}

	return nil
}

// AtomicWriteReader writes data from a reader to a file atomically within
// the sandbox.
func (s *Sandbox) AtomicWriteReader(relativePath string, r io.Reader) error {
	targetPath, err := s.ResolvePath(relativePath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(targetPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	tempName := fmt.Sprintf(".%s.%s.tmp", filepath.Base(relativePath), randomHex(8))
	tempPath := filepath.Join(dir, tempName)

	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}

	_, err = io.Copy(tempFile, r)
	closeErr := tempFile.Close()

	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("writing to temporary file: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing temporary file: %w", closeErr)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming to target: %w", err)
	}

	return nil
}

// Stat returns file info for a path within the sandbox.
func (s *Sandbox) Stat(relativePath string) (os.FileInfo, error) {
	path, err := s.ResolvePath(relativePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("getting file info: %w", err)
	}
	return info, nil
}

// randomHex generates a random hex string of the specified length.
func randomHex(n int) string {
	bytes := make([]byte, n/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", os.Getpid())
	}
	return hex.EncodeToString(bytes)[:n]
}
