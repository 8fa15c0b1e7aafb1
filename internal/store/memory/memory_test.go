package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "trains_2024-01-01 10:14", []byte(`{"N":[]}`)))

	val, found, err := store.Get(ctx, "trains_2024-01-01 10:14")

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"N":[]}`), val)
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	store := NewMemoryStore()

	val, found, err := store.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", original))
	original[0] = 'z'

	val, _, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), val)

	val[1] = 'z'
	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryStore_ScanPrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{
		"trains_2024-01-01 10:13",
		"trains_2024-01-01 10:14",
		"trainspotting_2024-01-01",
		"news_2024-01-01 10:00",
	} {
		require.NoError(t, store.Set(ctx, key, []byte("{}")))
	}

	keys, err := store.ScanPrefix(ctx, "trains_")

	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"trains_2024-01-01 10:13", "trains_2024-01-01 10:14"}, keys)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1")))
	require.NoError(t, store.Set(ctx, "b", []byte("2")))

	assert.NoError(t, store.Delete(ctx, "a", "missing"))

	_, found, _ := store.Get(ctx, "a")
	assert.False(t, found)
	_, found, _ = store.Get(ctx, "b")
	assert.True(t, found)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("news_%d", id)
			_ = store.Set(ctx, key, []byte("v"))
			_, _, _ = store.Get(ctx, key)
			_, _ = store.ScanPrefix(ctx, "news_")
		}(i)
	}
	wg.Wait()

	keys, err := store.ScanPrefix(ctx, "news_")
	assert.NoError(t, err)
	assert.Len(t, keys, 20)
}
