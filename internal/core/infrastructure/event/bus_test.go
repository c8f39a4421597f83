package event

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	eventIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/event"
)

// TestBus_SubscribePublish 测试同步订阅与发布
func TestBus_SubscribePublish(t *testing.T) {
	bus := NewBus()

	var got []uint64
	require.NoError(t, bus.Subscribe(eventIface.EventAccessGranted, func(id uint64) {
		got = append(got, id)
	}))

	bus.Publish(eventIface.EventAccessGranted, uint64(42))
	bus.Publish(eventIface.EventAccessGranted, uint64(43))

	require.Equal(t, []uint64{42, 43}, got)
	require.True(t, bus.HasCallback(eventIface.EventAccessGranted))
	require.False(t, bus.HasCallback(eventIface.EventAccessDenied))
}

// TestBus_SubscribeAsync 测试异步订阅与WaitAsync
func TestBus_SubscribeAsync(t *testing.T) {
	bus := NewBus()

	var count atomic.Int64
	require.NoError(t, bus.SubscribeAsync(eventIface.EventContributionAppended, func(index uint32, contributor string) {
		count.Add(1)
	}, false))

	for i := 0; i < 5; i++ {
		bus.Publish(eventIface.EventContributionAppended, uint32(i), "alice")
	}
	bus.WaitAsync()

	require.Equal(t, int64(5), count.Load())
}

// TestBus_SubscribeOnce 测试一次性订阅只触发一次
func TestBus_SubscribeOnce(t *testing.T) {
	bus := NewBus()

	var count int
	require.NoError(t, bus.SubscribeOnce(eventIface.EventVerificationKeyRotated, func() {
		count++
	}))

	bus.Publish(eventIface.EventVerificationKeyRotated)
	bus.Publish(eventIface.EventVerificationKeyRotated)
	require.Equal(t, 1, count)
}

// TestBus_Unsubscribe 测试取消订阅
func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	var count int
	handler := func(id uint64, required uint64) { count++ }
	require.NoError(t, bus.Subscribe(eventIface.EventResourceRegistered, handler))

	bus.Publish(eventIface.EventResourceRegistered, uint64(1), uint64(5))
	require.NoError(t, bus.Unsubscribe(eventIface.EventResourceRegistered, handler))
	bus.Publish(eventIface.EventResourceRegistered, uint64(2), uint64(5))

	require.Equal(t, 1, count)
}
