package fsx

import (
	"context"
	"io"
	"time"
)

// FileInfo describes a stored file.
type FileInfo struct {
	Name        string
	Size        int64
	ModTime     time.Time
	IsDir       bool
	ContentType string
	Metadata    map[string]string
}

// FileReader provides read-only operations.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// FileWriter provides write operations.
type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte) error
	WriteFileStream(ctx context.Context, path string, r io.Reader) error
}

// FileDeleter provides deletion operations.
type FileDeleter interface {
	DeleteFile(ctx context.Context, path string) error
}

// PathOperations provides backend-appropriate path joining.
type PathOperations interface {
	Join(elem ...string) string
}

// FileSystem combines the operations the document pipeline needs from a
// storage backend.
type FileSystem interface {
	FileReader
	FileWriter
	FileDeleter
	PathOperations
}
