// Package engine runs the background writer that drains the write queue to disk.
package engine

import (
	"context"
	"fmt"
	"historydash/app/service/queue"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/do"
)

type Service struct {
	queueSvc *queue.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		queueSvc: do.MustInvoke[*queue.Service](di),
	}, nil
}

// Run writes queued files until ctx is done or the queue is closed. Writes that
// are already queued when ctx ends are still flushed.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return
		case w, ok := <-s.queueSvc.Channel():
			if !ok {
				return
			}
			s.process(w)
		}
	}
}

func (s *Service) flush() {
	for {
		select {
		case w, ok := <-s.queueSvc.Channel():
			if !ok {
				return
			}
			s.process(w)
		default:
			return
		}
	}
}

func (s *Service) process(w queue.Write) {
	start := time.Now()

	if err := writeFile(w.Path, w.Data); err != nil {
		slog.Error("Error writing file", "path", w.Path, "error", err)
		return
	}

	slog.Debug("File written",
		"path", w.Path,
		"size", len(w.Data),
		"duration", time.Since(start))
}

// writeFile replaces path through a temporary file in the same directory so
// readers never observe a partial document.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("could not close temp file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not replace file: %w", err)
	}

	return nil
}
