// Package ingest runs the AI-assisted bulk insert: extract entities from free text,
// resolve their title links and commit them to the store in one step.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"historydash/app/service/extract"
	"historydash/app/service/resolver"
	"historydash/app/util/mylog"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/do"
	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

var (
	ErrBusy      = errors.New("an extraction is already running")
	ErrDiscarded = errors.New("extraction result discarded")
	ErrCancelled = errors.New("extraction cancelled by client")
)

type Service struct {
	extractSvc  *extract.Service
	resolverSvc *resolver.Service
	inFlight    *semaphore.Weighted

	mu     sync.Mutex
	cancel context.CancelCauseFunc
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		extractSvc:  do.MustInvoke[*extract.Service](di),
		resolverSvc: do.MustInvoke[*resolver.Service](di),
		inFlight:    semaphore.NewWeighted(1),
	}, nil
}

// Ingest extracts and commits the entities of text. Only one call runs at a time;
// others fail with ErrBusy. When ctx ends or Cancel is called before the model
// answers, the result is dropped with ErrDiscarded. On any error the store is left unchanged.
func (s *Service) Ingest(ctx context.Context, text string) (*resolver.Result, error) {
	if !s.inFlight.TryAcquire(1) {
		return nil, oops.In("ingest").Wrapf(ErrBusy, "ingest")
	}
	defer s.inFlight.Release(1)

	ctx, cancel := context.WithCancelCause(ctx)
	s.setCancel(cancel)
	defer func() {
		s.setCancel(nil)
		cancel(nil)
	}()

	start := time.Now()

	batch, err := s.extractSvc.Extract(ctx, text)
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		slog.Warn("Discarding extraction result", "cause", cause, "duration", time.Since(start))
		return nil, oops.In("ingest").Wrapf(fmt.Errorf("%w: %w", ErrDiscarded, cause), "ingest")
	}
	if err != nil {
		return nil, oops.In("ingest").With("text_length", len(text)).Wrapf(err, "extract")
	}

	result, err := s.resolverSvc.Commit(batch)
	if err != nil {
		return nil, oops.In("ingest").With("entities", batch.Len()).Wrapf(err, "commit")
	}

	slog.Info("Extracted items imported",
		mylog.TelegramKey, true,
		"items", len(result.Items),
		"stubs", len(result.Stubs),
		"skipped", len(result.Skipped),
		"duration", time.Since(start))

	return result, nil
}

// Cancel aborts the running extraction, whose result is then discarded. It reports
// whether anything was running.
func (s *Service) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return false
	}

	s.cancel(ErrCancelled)
	slog.Info("Extraction cancelled")

	return true
}

func (s *Service) setCancel(cancel context.CancelCauseFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel = cancel
}
