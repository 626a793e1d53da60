package queue

import (
	"historydash/app/config"
	"log/slog"

	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

// Service buffers file writes for the background writer. Adding never blocks:
// when the buffer is full the write is dropped with a warning.
type Service struct {
	queue chan Write
}

type Write struct {
	Path string
	Data []byte
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{
		queue: make(chan Write, cfg.Data.QueueSize),
	}, nil
}

// Add reports whether the write was queued.
func (s *Service) Add(path string, data []byte) (queued bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("write queue is closed", "path", path)
			queued = false
		}
	}()

	select {
	case s.queue <- Write{Path: path, Data: data}:
		return true
	default:
		slog.Warn("write queue is full", "path", path)
		return false
	}
}

func (s *Service) Channel() <-chan Write {
	return s.queue
}

func (s *Service) Shutdown() error {
	close(s.queue)

	return nil
}
