package serial

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObserverSlotDispatch(t *testing.T) {
	var slot observerSlot[[]byte]
	var got []byte

	slot.store(func(data []byte) { got = data })
	slot.dispatch(directDispatcher{}, []byte("abc"), true)

	require.Equal(t, []byte("abc"), got)
}

func TestObserverSlotNoCallback(t *testing.T) {
	var slot observerSlot[[]byte]

	// Must not panic with an empty slot
	slot.dispatch(directDispatcher{}, []byte("abc"), true)
	slot.dispatch(directDispatcher{}, []byte("abc"), false)
}

func TestObserverSlotClearPreventsDispatch(t *testing.T) {
	var slot observerSlot[error]
	called := false

	slot.store(func(error) { called = true })
	slot.clear()
	slot.dispatch(directDispatcher{}, ErrWriteFailed, true)

	require.False(t, called, "cleared callback must not fire")
}

// Replacing the callback while a dispatch is in flight: the in-flight
// invocation completes with the old callback, the next dispatch uses
// the new one.
func TestObserverSlotReplaceDuringDispatch(t *testing.T) {
	var slot observerSlot[[]byte]

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls []string
	var mu sync.Mutex

	slot.store(func([]byte) {
		mu.Lock()
		calls = append(calls, "old")
		mu.Unlock()
		close(entered)
		<-release
	})

	done := make(chan struct{})
	go func() {
		slot.dispatch(directDispatcher{}, []byte("first"), true)
		close(done)
	}()

	<-entered
	// Old callback is running; replace it mid-flight
	slot.store(func([]byte) {
		mu.Lock()
		calls = append(calls, "new")
		mu.Unlock()
	})
	close(release)
	<-done

	slot.dispatch(directDispatcher{}, []byte("second"), true)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"old", "new"}, calls)
}

// Invocations of one event class never run concurrently even when
// delivered without blocking.
func TestObserverSlotSerializesInvocations(t *testing.T) {
	var slot observerSlot[error]

	var mu sync.Mutex
	active := 0
	maxActive := 0
	var wg sync.WaitGroup

	slot.store(func(error) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		wg.Done()
	})

	for range 10 {
		wg.Add(1)
		slot.dispatch(directDispatcher{}, ErrWriteFailed, false)
	}
	wg.Wait()

	require.Equal(t, 1, maxActive, "invocations must be serialized")
}

// Events delivered without blocking still arrive in generation order
func TestObserverSlotNonBlockingPreservesOrder(t *testing.T) {
	var slot observerSlot[int]

	const n = 2000
	var mu sync.Mutex
	var got []int

	slot.store(func(v int) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})

	for i := range n {
		slot.dispatch(directDispatcher{}, i, false)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == n
	}, 5*time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		require.Equal(t, i, v, "event %d delivered out of order", i)
	}
}

// Updating the slot must not wait for slow observer code
func TestObserverSlotStoreNotBlockedByDispatch(t *testing.T) {
	var slot observerSlot[[]byte]

	entered := make(chan struct{})
	release := make(chan struct{})
	slot.store(func([]byte) {
		close(entered)
		<-release
	})

	go slot.dispatch(directDispatcher{}, nil, true)
	<-entered

	replaced := make(chan struct{})
	go func() {
		slot.store(nil)
		close(replaced)
	}()

	select {
	case <-replaced:
	case <-time.After(time.Second):
		t.Fatal("store blocked behind an in-flight dispatch")
	}
	close(release)
}
