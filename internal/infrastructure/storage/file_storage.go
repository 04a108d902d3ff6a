// Package storage keeps uploaded documents on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
)

// ErrPathEscapes is returned for paths that resolve outside the base directory
var ErrPathEscapes = errors.New("path escapes base directory")

var _ port.FileStorage = (*LocalFileStorage)(nil)

// LocalFileStorage writes documents below a base directory
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{baseDir: baseDir, logger: logger}
}

// Save writes content to rel, which must stay inside the base directory
func (s *LocalFileStorage) Save(ctx context.Context, rel string, content []byte) error {
	target, err := s.resolve(rel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		s.logger.Error("Failed to create document directory",
			zap.String("path", target),
			zap.Error(err))
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(target, content, 0644); err != nil {
		s.logger.Error("Failed to write document",
			zap.String("path", target),
			zap.Error(err))
		return fmt.Errorf("write %s: %w", rel, err)
	}

	s.logger.Debug("Document stored",
		zap.String("path", target),
		zap.Int("bytes", len(content)))
	return nil
}

// resolve joins rel onto the base directory and rejects anything outside it
func (s *LocalFileStorage) resolve(rel string) (string, error) {
	target, err := filepath.Abs(filepath.Join(s.baseDir, rel))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	base, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base directory: %w", err)
	}
	if target != base && !strings.HasPrefix(target, base+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, rel)
	}
	return target, nil
}
