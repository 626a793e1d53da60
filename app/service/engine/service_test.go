package engine

import (
	"context"
	"historydash/app/config"
	"historydash/app/service/queue"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInjector(t *testing.T) *do.Injector {
	t.Helper()

	di := do.New()
	do.ProvideValue(di, &config.Config{Data: config.Data{QueueSize: 8}})
	do.Provide(di, queue.New)
	do.Provide(di, New)

	return di
}

func TestRunWritesQueuedFiles(t *testing.T) {
	di := newTestInjector(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "layout.json")

	queueSvc := do.MustInvoke[*queue.Service](di)
	require.True(t, queueSvc.Add(path, []byte(`{"a":1}`)))
	require.True(t, queueSvc.Add(path, []byte(`{"a":2}`)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		do.MustInvoke[*Service](di).Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == `{"a":2}`
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunFlushesOnCancel(t *testing.T) {
	di := newTestInjector(t)
	path := filepath.Join(t.TempDir(), "layout.json")

	queueSvc := do.MustInvoke[*queue.Service](di)
	require.True(t, queueSvc.Add(path, []byte("x")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	do.MustInvoke[*Service](di).Run(ctx)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestRunStopsWhenQueueCloses(t *testing.T) {
	di := newTestInjector(t)
	require.NoError(t, do.MustInvoke[*queue.Service](di).Shutdown())

	done := make(chan struct{})
	go func() {
		do.MustInvoke[*Service](di).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the queue closed")
	}
}
