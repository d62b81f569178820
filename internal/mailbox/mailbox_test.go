package mailbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutTakeOrder(t *testing.T) {
	m := New[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("c", 3)

	for _, want := range []int{1, 2, 3} {
		got, ok := m.Take()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Zero(t, m.Pending())
}

func TestPutCoalescesPerKey(t *testing.T) {
	m := New[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("a", 10) // replaces the pending job for "a"

	assert.Equal(t, 2, m.Pending())

	got, ok := m.Take()
	require.True(t, ok)
	assert.Equal(t, 10, got, "latest job for a key wins, original position kept")

	got, ok = m.Take()
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestTakeBlocksUntilPut(t *testing.T) {
	m := New[string, int]()
	done := make(chan int)
	go func() {
		v, _ := m.Take()
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	m.Put("a", 42)

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("Take did not wake up")
	}
}

func TestCloseDrainsThenStops(t *testing.T) {
	m := New[string, int]()
	m.Put("a", 1)
	m.Close()

	got, ok := m.Take()
	require.True(t, ok)
	assert.Equal(t, 1, got)

	_, ok = m.Take()
	assert.False(t, ok)

	m.Put("b", 2) // dropped after close
	_, ok = m.Take()
	assert.False(t, ok)
}

func TestCloseWakesBlockedTake(t *testing.T) {
	m := New[string, int]()
	done := make(chan bool)
	go func() {
		_, ok := m.Take()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	m.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Take did not wake up on close")
	}
}
