package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestStorage_PutAndGet(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, []string{"plans", "plan-1"}, record{ID: "plan-1", Title: "Launch"}))

	_, err := os.Stat(filepath.Join(dir, "plans", "plan-1.json"))
	require.NoError(t, err)

	var got record
	require.NoError(t, s.Get(ctx, []string{"plans", "plan-1"}, &got))
	assert.Equal(t, "Launch", got.Title)
}

func TestStorage_GetNotFound(t *testing.T) {
	s := New(t.TempDir())
	var got record
	assert.ErrorIs(t, s.Get(context.Background(), []string{"plans", "missing"}, &got), ErrNotFound)
}

func TestStorage_GetCancelledContext(t *testing.T) {
	s := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var got record
	assert.ErrorIs(t, s.Get(ctx, []string{"plans", "x"}, &got), context.Canceled)
}

func TestStorage_Delete(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, []string{"tools", "weather"}, record{ID: "weather"}))
	require.NoError(t, s.Delete(ctx, []string{"tools", "weather"}))
	assert.False(t, s.Exists(ctx, []string{"tools", "weather"}))

	assert.NoError(t, s.Delete(ctx, []string{"tools", "weather"}))
}

func TestStorage_ListSorted(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Put(ctx, []string{"plans", id}, record{ID: id}))
	}

	keys, err := s.List(ctx, []string{"plans"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	empty, err := s.List(ctx, []string{"nothing"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStorage_Scan(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, []string{"plans", "p1"}, record{ID: "p1", Title: "one"}))
	require.NoError(t, s.Put(ctx, []string{"plans", "p2"}, record{ID: "p2", Title: "two"}))

	var titles []string
	err := s.Scan(ctx, []string{"plans"}, func(key string, data json.RawMessage) error {
		var r record
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		titles = append(titles, r.Title)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, titles)
}

func TestStorage_ConcurrentPut(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, []string{"plans", "shared"}, record{ID: "shared"}))
		}(i)
	}
	wg.Wait()

	var got record
	require.NoError(t, s.Get(ctx, []string{"plans", "shared"}, &got))
	assert.Equal(t, "shared", got.ID)

	_, err := os.Stat(filepath.Join(s.BasePath(), "plans", "shared.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileLock(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "plan.json")
	lock := NewFileLock(doc)

	require.NoError(t, lock.Unlock(), "unlocking an idle lock is a no-op")

	require.NoError(t, lock.Lock())
	assert.FileExists(t, doc+".lock")

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		_ = lock.Lock()
		close(acquired)
		_ = lock.Unlock()
		close(released)
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock returned while the lock was held")
	default:
	}

	require.NoError(t, lock.Unlock())
	<-acquired
	<-released
	assert.NoFileExists(t, doc+".lock")
}
