package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

var (
	ErrInvalidFileName = errors.New("invalid file name")
	ErrNotFound        = errors.New("report file not found")
)

// Sink persists encoded report bytes under a file name.
type Sink interface {
	Write(ctx context.Context, fileName string, data []byte) error
}

// Source opens a previously written report for download.
type Source interface {
	Open(ctx context.Context, fileName string) (io.ReadCloser, error)
}

// Store is a Sink that can also serve what it wrote.
type Store interface {
	Sink
	Source
}

// ValidFileName accepts plain "*.csv" names without path components.
func ValidFileName(name string) bool {
	return name != "" &&
		strings.HasSuffix(name, ".csv") &&
		!strings.Contains(name, "..") &&
		!strings.Contains(name, "/") &&
		!strings.Contains(name, `\`)
}

// FileSink writes reports into a local directory.
type FileSink struct {
	dir    string
	logger *log.Logger
}

func NewFileSink(dir string, logger *log.Logger) *FileSink {
	return &FileSink{dir: dir, logger: logger}
}

func (s *FileSink) Write(_ context.Context, fileName string, data []byte) error {
	if !ValidFileName(fileName) {
		return fmt.Errorf("write report %q: %w", fileName, ErrInvalidFileName)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	target := filepath.Join(s.dir, fileName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report %q: %w", fileName, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize report %q: %w", fileName, err)
	}

	if s.logger != nil {
		s.logger.Printf("report written path=%s bytes=%d", target, len(data))
	}
	return nil
}

func (s *FileSink) Open(_ context.Context, fileName string) (io.ReadCloser, error) {
	if !ValidFileName(fileName) {
		return nil, ErrInvalidFileName
	}
	f, err := os.Open(filepath.Join(s.dir, fileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open report %q: %w", fileName, err)
	}
	return f, nil
}

// GCSSink stores reports as objects in a Cloud Storage bucket.
type GCSSink struct {
	bucket *storage.BucketHandle
	prefix string
	logger *log.Logger
}

func NewGCSSink(client *storage.Client, bucket, prefix string, logger *log.Logger) *GCSSink {
	return &GCSSink{
		bucket: client.Bucket(bucket),
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

func (s *GCSSink) objectName(fileName string) string {
	if s.prefix == "" {
		return fileName
	}
	return path.Join(s.prefix, fileName)
}

func (s *GCSSink) Write(ctx context.Context, fileName string, data []byte) error {
	if !ValidFileName(fileName) {
		return fmt.Errorf("write report %q: %w", fileName, ErrInvalidFileName)
	}

	object := s.objectName(fileName)
	writer := s.bucket.Object(object).NewWriter(ctx)
	writer.ContentType = "text/csv; charset=utf-8"

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write report object %q: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize report object %q: %w", object, err)
	}

	if s.logger != nil {
		s.logger.Printf("report uploaded object=%s bytes=%d", object, len(data))
	}
	return nil
}

func (s *GCSSink) Open(ctx context.Context, fileName string) (io.ReadCloser, error) {
	if !ValidFileName(fileName) {
		return nil, ErrInvalidFileName
	}
	reader, err := s.bucket.Object(s.objectName(fileName)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open report object %q: %w", fileName, err)
	}
	return reader, nil
}
