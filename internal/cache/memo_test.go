package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoCachesUntilExpiry(t *testing.T) {
	m := New[int](10 * time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	calls := 0
	fn := func(context.Context) (int, error) { calls++; return calls, nil }

	v, err := m.Get(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, _ = m.Get(context.Background(), "k", fn)
	assert.Equal(t, 1, v)

	clock = clock.Add(10 * time.Minute)
	v, _ = m.Get(context.Background(), "k", fn)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, m.Len())
}

func TestMemoDoesNotCacheErrors(t *testing.T) {
	m := New[string](time.Minute)
	boom := errors.New("boom")
	_, err := m.Get(context.Background(), "k", func(context.Context) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Len())

	v, err := m.Get(context.Background(), "k", func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestMemoCollapsesConcurrentCalls(t *testing.T) {
	m := New[int](time.Minute)
	var calls int32
	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get(context.Background(), "k", func(context.Context) (int, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	m.Purge()
	assert.Equal(t, 0, m.Len())
}
