package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixel-frame/internal/infra/state/memory"
	"pixel-frame/internal/repository"
)

func TestKVStore_GetSet(t *testing.T) {
	store := memory.NewKVStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	value := []byte("hello")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'j' // 调用方修改不应影响已存储的值

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestKVStore_CanceledContext(t *testing.T) {
	store := memory.NewKVStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Set(ctx, "k", []byte("v")))
	_, ok := store.Raw("k")
	assert.False(t, ok)
}

func TestKVStore_IncrWindow(t *testing.T) {
	store := memory.NewKVStore()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.IncrWindow(ctx, "ip", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := store.IncrWindow(ctx, "other", time.Nanosecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
	time.Sleep(time.Millisecond)
	got, err = store.IncrWindow(ctx, "other", time.Nanosecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "窗口过期后应重新计数")
}

func TestKVStore_IncrWindowExtendsExpiry(t *testing.T) {
	store := memory.NewKVStore()
	ctx := context.Background()
	window := 200 * time.Millisecond

	for i := 0; i < 4; i++ {
		_, err := store.IncrWindow(ctx, "ip", window)
		require.NoError(t, err)
		time.Sleep(window / 4)
	}
	// 每次请求都推迟过期, 持续请求的客户端不会被重置
	got, err := store.IncrWindow(ctx, "ip", window)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)
}

func TestKVStore_IncrWindowPrunesExpired(t *testing.T) {
	store := memory.NewKVStore()
	ctx := context.Background()

	for _, ip := range []string{"a", "b", "c"} {
		_, err := store.IncrWindow(ctx, ip, time.Nanosecond)
		require.NoError(t, err)
	}
	time.Sleep(time.Millisecond)

	_, err := store.IncrWindow(ctx, "d", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, store.WindowKeys())
	_, ok := store.WindowCount("a")
	assert.False(t, ok)
	count, ok := store.WindowCount("d")
	require.True(t, ok)
	assert.Equal(t, int64(1), count)
}
