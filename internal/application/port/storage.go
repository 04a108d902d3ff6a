package port

import "context"

// FileStorage persists uploaded receipts and invoices
type FileStorage interface {
	// Save writes content under a path relative to the storage root,
	// creating intermediate directories.
	Save(ctx context.Context, path string, content []byte) error
}

// FolderManager owns the per-applicant folders documents are filed into
type FolderManager interface {
	// CreateFolder ensures the folder exists and returns its absolute path
	CreateFolder(ctx context.Context, name string) (string, error)
	SanitizeName(name string) string
}
