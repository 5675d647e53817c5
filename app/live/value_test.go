package live

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_WatchReplaysCurrent(t *testing.T) {
	v := New(1)
	v.Set(2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := v.Watch(ctx)
	assert.Equal(t, 2, <-ch)

	v.Set(3)
	assert.Equal(t, 3, <-ch)
	assert.Equal(t, 3, v.Get())
}

func TestValue_ConflatesToLatest(t *testing.T) {
	v := New("a")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := v.Watch(ctx)

	v.Set("b")
	v.Set("c")
	v.Set("d")
	assert.Equal(t, "d", <-ch)

	select {
	case got := <-ch:
		t.Fatalf("unexpected stale value %q", got)
	default:
	}
}

func TestValue_Update(t *testing.T) {
	v := New(10)
	res := v.Update(func(i int) int { return i + 5 })
	assert.Equal(t, 15, res)
	assert.Equal(t, 15, v.Get())
}

func TestValue_ActiveIdleHooks(t *testing.T) {
	var active, idle int32
	v := New(0,
		OnActive[int](func() { atomic.AddInt32(&active, 1) }),
		OnIdle[int](func() { atomic.AddInt32(&idle, 1) }),
	)

	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	ch1 := v.Watch(ctx1)
	ch2 := v.Watch(ctx2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&active), "one activation for two watchers")
	assert.Equal(t, 2, v.Watchers())

	cancel1()
	drain(t, ch1)
	assert.Equal(t, int32(0), atomic.LoadInt32(&idle))

	cancel2()
	drain(t, ch2)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&idle) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, v.Watchers())

	ctx3, cancel3 := context.WithCancel(context.Background())
	defer cancel3()
	v.Watch(ctx3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&active), "resumed on a new watcher")
}

func TestValue_HookMaySet(t *testing.T) {
	var v *Value[int]
	v = New(0, OnActive[int](func() { v.Set(42) }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := v.Watch(ctx)
	assert.Equal(t, 42, <-ch, "latest value replaces the replayed one")
}

func drain[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("channel not closed")
		}
	}
}
