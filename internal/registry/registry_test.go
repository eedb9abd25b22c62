package registry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomlink/messaging-platform/pkg/logger"
)

type fakeChannel struct {
	mu       sync.Mutex
	payloads [][]byte
	failWith error
	closed   bool
}

func (c *fakeChannel) Write(payload []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func newTestRegistry() *Registry {
	return New(time.Second, logger.NewNop())
}

func TestRegistry_RegisterUnregister(t *testing.T) {
	r := newTestRegistry()
	ch := &fakeChannel{}

	assert.False(t, r.IsOnline(7))

	r.Register(7, ch)
	assert.True(t, r.IsOnline(7))

	r.Unregister(7, ch)
	assert.False(t, r.IsOnline(7))

	// removing an absent channel is a no-op
	r.Unregister(7, ch)
	assert.False(t, r.IsOnline(7))
}

func TestRegistry_MultiDevice(t *testing.T) {
	r := newTestRegistry()
	phone := &fakeChannel{}
	laptop := &fakeChannel{}

	r.Register(7, phone)
	r.Register(7, laptop)
	require.True(t, r.IsOnline(7))

	r.Unregister(7, phone)
	assert.True(t, r.IsOnline(7), "one channel left, still online")

	r.Unregister(7, laptop)
	assert.False(t, r.IsOnline(7))
}

func TestRegistry_SendFansOutToAllChannels(t *testing.T) {
	r := newTestRegistry()
	phone := &fakeChannel{}
	laptop := &fakeChannel{}
	r.Register(7, phone)
	r.Register(7, laptop)

	delivered := r.Send(7, []byte("hello"))
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, phone.received())
	assert.Equal(t, 1, laptop.received())
}

func TestRegistry_SendOfflineReturnsZero(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, 0, r.Send(42, []byte("anyone home")))
}

func TestRegistry_SendEvictsBrokenChannels(t *testing.T) {
	r := newTestRegistry()
	good := &fakeChannel{}
	bad := &fakeChannel{failWith: errors.New("broken pipe")}
	r.Register(7, good)
	r.Register(7, bad)

	delivered := r.Send(7, []byte("hi"))
	assert.Equal(t, 1, delivered)

	bad.mu.Lock()
	closed := bad.closed
	bad.mu.Unlock()
	assert.True(t, closed, "broken channel must be closed on eviction")

	// broken channel is gone; the good one keeps the participant online
	assert.True(t, r.IsOnline(7))
	assert.Equal(t, 1, r.Send(7, []byte("again")))
	assert.Equal(t, 2, good.received())
}

func TestRegistry_AllChannelsBrokenGoesOffline(t *testing.T) {
	r := newTestRegistry()
	bad := &fakeChannel{failWith: errors.New("closed")}
	r.Register(7, bad)

	assert.Equal(t, 0, r.Send(7, []byte("hi")))
	assert.False(t, r.IsOnline(7))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := newTestRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(pid uint64) {
			defer wg.Done()
			ch := &fakeChannel{}
			r.Register(pid, ch)
			r.Send(pid, []byte("ping"))
			r.Unregister(pid, ch)
		}(uint64(i % 4))
	}
	wg.Wait()

	for pid := uint64(0); pid < 4; pid++ {
		assert.False(t, r.IsOnline(pid))
	}
}
