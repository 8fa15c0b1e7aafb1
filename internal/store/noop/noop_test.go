package noop

import (
	"context"
	"sync"
	"testing"
)

func TestNewNoOpStore(t *testing.T) {
	store := NewNoOpStore()
	if store == nil {
		t.Fatal("NewNoOpStore() returned nil")
	}

	if _, ok := store.(*NoOpStore); !ok {
		t.Errorf("NewNoOpStore() returned %T, want *NoOpStore", store)
	}
}

func TestNoOpStore_Get(t *testing.T) {
	store := NewNoOpStore()
	ctx := context.Background()

	testCases := []string{
		"trains_2024-01-01 10:14",
		"",
		"very-long-key-with-special-characters-!@#$%^&*()",
	}

	for _, key := range testCases {
		t.Run("key="+key, func(t *testing.T) {
			val, found, err := store.Get(ctx, key)

			if err != nil {
				t.Errorf("Get(%q) err = %v, want nil", key, err)
			}
			if val != nil {
				t.Errorf("Get(%q) val = %v, want nil", key, val)
			}
			if found {
				t.Errorf("Get(%q) found = %v, want false", key, found)
			}
		})
	}
}

func TestNoOpStore_SetThenGetMisses(t *testing.T) {
	store := NewNoOpStore()
	ctx := context.Background()

	testCases := []struct {
		key string
		val []byte
	}{
		{"news_2024-01-01 10:00", []byte(`{"items":[]}`)},
		{"", []byte("")},
		{"binary-key", []byte{0x01, 0x02, 0x03, 0xFF}},
	}

	for _, tc := range testCases {
		t.Run("key="+tc.key, func(t *testing.T) {
			if err := store.Set(ctx, tc.key, tc.val); err != nil {
				t.Errorf("Set(%q) err = %v, want nil", tc.key, err)
			}

			val, found, err := store.Get(ctx, tc.key)
			if val != nil || found || err != nil {
				t.Errorf("After Set(%q), Get() = (%v, %v, %v), want (nil, false, nil)", tc.key, val, found, err)
			}
		})
	}
}

func TestNoOpStore_ScanPrefixAndDelete(t *testing.T) {
	store := NewNoOpStore()
	ctx := context.Background()

	_ = store.Set(ctx, "trains_2024-01-01 10:14", []byte("{}"))

	keys, err := store.ScanPrefix(ctx, "trains_")
	if err != nil {
		t.Errorf("ScanPrefix() err = %v, want nil", err)
	}
	if len(keys) != 0 {
		t.Errorf("ScanPrefix() = %v, want empty", keys)
	}

	if err := store.Delete(ctx, "trains_2024-01-01 10:14", "trains_2024-01-01 10:15"); err != nil {
		t.Errorf("Delete() err = %v, want nil", err)
	}
}

func TestNoOpStore_ConcurrentAccess(t *testing.T) {
	store := NewNoOpStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			key := "concurrent_key"
			_ = store.Set(ctx, key, []byte("value"))
			_, _, _ = store.Get(ctx, key)
			_, _ = store.ScanPrefix(ctx, "concurrent_")
			_ = store.Delete(ctx, key)
		}()
	}
	wg.Wait()

	val, found, err := store.Get(ctx, "concurrent_key")
	if val != nil || found || err != nil {
		t.Errorf("After concurrent operations, Get() = (%v, %v, %v), want (nil, false, nil)", val, found, err)
	}
}
