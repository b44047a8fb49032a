package sbs

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Rotator is an io.Writer backed by a dated capture file in a
// directory, rotated daily. Completed files are gzip-compressed in the
// background. All dates are UTC, matching the timestamps on the SBS
// lines themselves.
type Rotator struct {
	dir  string
	log  *logrus.Logger
	mu   sync.Mutex
	file *os.File
	date string
}

// NewRotator creates the capture directory if needed and opens the
// current day's file.
func NewRotator(dir string, log *logrus.Logger) (*Rotator, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	r := &Rotator{
		dir: dir,
		log: log,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.rotate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Write appends to the current day's capture file, rotating first if
// the date has changed since the last write.
func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.date != captureDate(time.Now()) {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}
	return r.file.Write(p)
}

// Run rotates on a timer so an idle capture still rolls over at
// midnight. It returns when the context is cancelled.
func (r *Rotator) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.date != captureDate(time.Now()) {
				if err := r.rotate(); err != nil {
					r.log.WithError(err).Error("Failed to rotate capture file")
				}
			}
			r.mu.Unlock()
		}
	}
}

// Close closes the current capture file. The file is left
// uncompressed so a restart on the same day can append to it.
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// rotate closes the current file, queues it for compression, and opens
// the file for today's date. Callers hold r.mu.
func (r *Rotator) rotate() error {
	if r.file != nil {
		oldDate := r.date
		if err := r.file.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close capture file")
		}
		go r.compress(oldDate)
	}

	date := captureDate(time.Now())
	path := r.capturePath(date)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open capture file %s: %w", path, err)
	}

	r.file = file
	r.date = date
	r.log.WithField("file", path).Info("Opened capture file")
	return nil
}

// compress gzips a completed capture file and removes the original.
func (r *Rotator) compress(date string) {
	src := r.capturePath(date)
	dst := src + ".gz"

	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		r.log.WithError(err).WithField("file", src).Error("Failed to open capture file for compression")
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		r.log.WithError(err).WithField("file", dst).Error("Failed to create compressed capture file")
		return
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(src)
	gz.ModTime = time.Now()

	if _, err := io.Copy(gz, in); err != nil {
		r.log.WithError(err).Error("Failed to compress capture file")
		return
	}
	if err := gz.Close(); err != nil {
		r.log.WithError(err).Error("Failed to finish compressed capture file")
		return
	}
	if err := out.Close(); err != nil {
		r.log.WithError(err).Error("Failed to close compressed capture file")
		return
	}

	if err := os.Remove(src); err != nil {
		r.log.WithError(err).WithField("file", src).Error("Failed to remove compressed capture source")
		return
	}

	r.log.WithField("file", dst).Info("Compressed capture file")
}

// CleanupOld removes capture files, compressed or not, older than
// maxAge. The current day's file is never removed.
func (r *Rotator) CleanupOld(maxAge time.Duration) error {
	if maxAge <= 0 {
		return fmt.Errorf("maxAge must be positive")
	}

	files, err := filepath.Glob(filepath.Join(r.dir, "sbs_*.csv*"))
	if err != nil {
		return fmt.Errorf("failed to list capture files: %w", err)
	}

	r.mu.Lock()
	current := r.capturePath(r.date)
	r.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, file := range files {
		if file == current {
			continue
		}
		info, err := os.Stat(file)
		if err != nil {
			r.log.WithError(err).WithField("file", file).Warn("Failed to stat capture file")
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				r.log.WithError(err).WithField("file", file).Error("Failed to remove old capture file")
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		r.log.WithField("count", removed).Info("Removed old capture files")
	}
	return nil
}

func (r *Rotator) capturePath(date string) string {
	return filepath.Join(r.dir, fmt.Sprintf("sbs_%s.csv", date))
}

func captureDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
