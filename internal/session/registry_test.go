package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	calls atomic.Int64
	err   error
}

func (f *fakeCreator) CreateThread(ctx context.Context) (string, error) {
	n := f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("thread_%d", n), nil
}

func TestGetOrCreate_ReturnsSameThread(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{}
	reg := NewRegistry(creator)

	first, err := reg.GetOrCreate(ctx, 42)
	require.NoError(t, err)

	second, err := reg.GetOrCreate(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, creator.calls.Load())
}

func TestGetOrCreate_DistinctIdentities(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{}
	reg := NewRegistry(creator)

	a, err := reg.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	b, err := reg.GetOrCreate(ctx, 2)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, reg.Len())
}

func TestGetOrCreate_ConcurrentSingleCreation(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{}
	reg := NewRegistry(creator)

	const goroutines = 50
	results := make([]string, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			threadID, err := reg.GetOrCreate(ctx, 7)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = threadID
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, creator.calls.Load(), "exactly one backend call for one identity")
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestGetOrCreate_BackendErrorNotCached(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{err: errors.New("backend down")}
	reg := NewRegistry(creator)

	_, err := reg.GetOrCreate(ctx, 9)
	require.Error(t, err)
	assert.Equal(t, 0, reg.Len())

	// Backend recovers; next call creates a thread.
	creator.err = nil
	threadID, err := reg.GetOrCreate(ctx, 9)
	require.NoError(t, err)
	assert.NotEmpty(t, threadID)
}
