package xlsx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/geoleague/internal/domain/report"
	"github.com/okian/geoleague/pkg/logger"
)

// Writer renders reports and stores them on disk.
type Writer struct {
	log logger.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the writer logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{log: logger.Nop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders rep and stores it at path. The workbook is fully built in
// memory, written to a temporary file next to path and renamed into place,
// so path either keeps its old content or holds the complete new workbook.
func (w *Writer) Write(ctx context.Context, path string, rep *report.Report) error {
	start := time.Now()
	f, err := Render(rep)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	w.log.Info(ctx, "workbook written",
		logger.String("path", path),
		logger.Int("sheets", len(rep.Weeks)+3),
		logger.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
