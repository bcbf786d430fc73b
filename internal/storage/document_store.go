// Package storage keeps rendered invoice PDFs on the local filesystem,
// addressed by content hash so a byte-identical re-render lands on the same
// file and nothing is ever overwritten with different content.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DocumentStore is the write-once PDF store.
type DocumentStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewDocumentStore creates the store rooted at baseDir, creating it if
// needed.
func NewDocumentStore(baseDir string, logger *zap.Logger) (*DocumentStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	return &DocumentStore{baseDir: baseDir, logger: logger}, nil
}

// SavePDF writes the bytes under their sha256 name and returns the relative
// path and hex checksum. Saving the same content twice is a no-op.
func (s *DocumentStore) SavePDF(content []byte) (path string, checksum string, err error) {
	sum := sha256.Sum256(content)
	checksum = hex.EncodeToString(sum[:])
	// Two-level fanout keeps directories small.
	rel := filepath.Join(checksum[:2], checksum[2:]+".pdf")
	full := filepath.Join(s.baseDir, rel)

	if _, statErr := os.Stat(full); statErr == nil {
		s.logger.Debug("Document already stored", zap.String("checksum", checksum))
		return rel, checksum, nil
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		s.logger.Error("Failed to create document subdirectory", zap.Error(err))
		return "", "", fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(full, content, 0644); err != nil {
		s.logger.Error("Failed to write document", zap.String("path", full), zap.Error(err))
		return "", "", fmt.Errorf("failed to write document: %w", err)
	}

	s.logger.Debug("Document stored",
		zap.String("checksum", checksum),
		zap.Int("size", len(content)))
	return rel, checksum, nil
}

// Read returns the bytes stored at the given relative path.
func (s *DocumentStore) Read(relPath string) ([]byte, error) {
	full := filepath.Join(s.baseDir, relPath)
	if err := s.validatePath(full); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		s.logger.Error("Failed to read document", zap.String("path", relPath), zap.Error(err))
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return content, nil
}

// validatePath checks that the resolved path stays inside baseDir.
func (s *DocumentStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes document directory: %s", fullPath)
	}
	return nil
}
