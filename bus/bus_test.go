package bus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	fakebus "github.com/ZackeryPlovanic/controlsystems2019/fake/bus"
)

func TestSerializesTransactions(t *testing.T) {
	const txTime = 20 * time.Millisecond

	fake := fakebus.New()
	fake.Delay = txTime
	fake.SetRegs(0x28, map[byte][]byte{0x00: {0xA0}})
	fake.SetRegs(0x68, map[byte][]byte{0x75: {0x68}})

	s := NewShared(fake, time.Second)

	// Two tasks issue reads at the same moment. The second to acquire the
	// gate pays for both transactions; neither is interleaved.
	start := time.Now()
	var wg sync.WaitGroup
	elapsed := make([]time.Duration, 2)

	for i, addr := range []uint16{0x28, 0x68} {
		wg.Add(1)
		go func(i int, addr uint16) {
			defer wg.Done()
			var r [1]byte
			reg := byte(0x00)
			if addr == 0x68 {
				reg = 0x75
			}
			err := s.Tx(addr, []byte{reg}, r[:])
			assert.NoError(t, err)
			elapsed[i] = time.Since(start)
		}(i, addr)
	}
	wg.Wait()

	first, second := elapsed[0], elapsed[1]
	if second < first {
		first, second = second, first
	}
	assert.GreaterOrEqual(t, second, 2*txTime, "second transaction should wait out the first")
	assert.Less(t, first, 2*txTime)
}

func TestContentionTimeout(t *testing.T) {
	fake := fakebus.New()
	fake.Delay = 100 * time.Millisecond
	fake.SetRegs(0x28, map[byte][]byte{0x00: {0xA0}})

	s := NewShared(fake, 10*time.Millisecond)

	// Occupy the bus.
	done := make(chan struct{})
	go func() {
		var r [1]byte
		s.Tx(0x28, []byte{0x00}, r[:])
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)

	// The waiter gives up within its bound instead of stalling the cycle.
	var r [1]byte
	err := s.Tx(0x28, []byte{0x00}, r[:])
	assert.True(t, errors.Is(err, ErrContention), "got %v", err)

	<-done

	// The gate is not poisoned: the next independent transaction succeeds.
	err = s.Tx(0x28, []byte{0x00}, r[:])
	assert.NoError(t, err)
}

func TestPassesThroughErrors(t *testing.T) {
	fake := fakebus.New()
	boom := errors.New("boom")
	fake.FailNext(boom)

	s := NewShared(fake, 0)
	err := s.Tx(0x28, []byte{0x00}, make([]byte, 1))
	assert.Equal(t, boom, err)
}
