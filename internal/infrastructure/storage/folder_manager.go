package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
)

var _ port.FolderManager = (*LocalFolderManager)(nil)

// LocalFolderManager files documents into one directory per applicant
type LocalFolderManager struct {
	baseDir string
	logger  *zap.Logger
}

func NewLocalFolderManager(baseDir string, logger *zap.Logger) *LocalFolderManager {
	return &LocalFolderManager{
		baseDir: baseDir,
		logger:  logger,
	}
}

// CreateFolder sanitizes name and creates the folder if missing.
// It is idempotent and returns the absolute folder path.
func (m *LocalFolderManager) CreateFolder(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("cannot create folder: empty name")
	}

	safeName := m.SanitizeName(name)
	if safeName == "" {
		return "", fmt.Errorf("cannot create folder: name %q has no safe characters", name)
	}
	folderPath := filepath.Join(m.baseDir, safeName)

	if err := os.MkdirAll(folderPath, 0755); err != nil {
		m.logger.Error("Failed to create folder",
			zap.String("name", name),
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	m.logger.Debug("Created folder",
		zap.String("name", name),
		zap.String("folder_path", folderPath))

	return folderPath, nil
}

// unsafeNameChars matches everything except letters, digits, '-', '_' and '.'.
// Letters include kana and kanji so Japanese document names survive.
var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}\-_.]`)

// maxNameLength bounds a sanitized name in bytes
const maxNameLength = 200

// SanitizeName returns a filesystem-safe version of the name.
// Path separators, parent references and leading dots are removed.
func (m *LocalFolderManager) SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = unsafeNameChars.ReplaceAllString(name, "")
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	name = strings.TrimLeft(name, ".")

	if len(name) > maxNameLength {
		// keep the extension
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = strings.ToValidUTF8(name[:maxNameLength-len(ext)], "") + ext
	}

	return name
}
