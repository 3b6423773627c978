// Package bus is a register-backed fake I2C bus. Devices are maps of
// register to bytes; reads copy from the map, writes store into it. Errors
// and artificial latency are injectable per transaction.
package bus

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

type Txn struct {
	Addr uint16
	W    []byte
	R    int
}

type Fake struct {
	mu   sync.Mutex
	regs map[uint16]map[byte][]byte
	errs []error
	log  []Txn

	// Delay is slept inside every transaction, while the caller holds the
	// shared gate. Used to prove serialization.
	Delay time.Duration
}

func New() *Fake {
	return &Fake{
		regs: make(map[uint16]map[byte][]byte),
	}
}

// SetRegs installs a device's register contents at an address.
func (f *Fake) SetRegs(addr uint16, regs map[byte][]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[addr] = regs
}

// FailNext queues errors to be returned by the next transactions, in order.
func (f *Fake) FailNext(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, errs...)
}

// Log returns every transaction seen so far.
func (f *Fake) Log() []Txn {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Txn, len(f.log))
	copy(out, f.log)
	return out
}

func (f *Fake) Tx(addr uint16, w, r []byte) error {
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.log = append(f.log, Txn{Addr: addr, W: append([]byte(nil), w...), R: len(r)})

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}

	dev, ok := f.regs[addr]
	if !ok {
		return fmt.Errorf("no device at 0x%02x", addr)
	}
	if len(w) == 0 {
		return fmt.Errorf("transaction without register address")
	}

	reg := w[0]
	if len(r) == 0 {
		// Register write.
		dev[reg] = append([]byte(nil), w[1:]...)
		return nil
	}

	// Register read: registers are laid out contiguously from reg.
	data, ok := dev[reg]
	if !ok || len(data) < len(r) {
		return fmt.Errorf("device 0x%02x: no %d bytes at register 0x%02x", addr, len(r), reg)
	}
	copy(r, data)
	return nil
}

func (f *Fake) String() string {
	return "fakebus"
}

func (f *Fake) SetSpeed(freq physic.Frequency) error {
	return nil
}
