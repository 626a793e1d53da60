package queue

import (
	"historydash/app/config"
	"testing"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, size int) *Service {
	t.Helper()

	di := do.New()
	do.ProvideValue(di, &config.Config{Data: config.Data{QueueSize: size}})

	s, err := New(di)
	require.NoError(t, err)

	return s
}

func TestAddDropsWhenFull(t *testing.T) {
	s := newTestService(t, 2)

	assert.True(t, s.Add("a", []byte("1")))
	assert.True(t, s.Add("b", []byte("2")))
	assert.False(t, s.Add("c", []byte("3")))

	first := <-s.Channel()
	assert.Equal(t, Write{Path: "a", Data: []byte("1")}, first)
	assert.True(t, s.Add("c", []byte("3")))
}

func TestAddAfterShutdown(t *testing.T) {
	s := newTestService(t, 1)
	require.NoError(t, s.Shutdown())

	assert.False(t, s.Add("a", nil))

	_, ok := <-s.Channel()
	assert.False(t, ok)
}
