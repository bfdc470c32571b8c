// Package databank implements the process-wide, concurrency-safe store of
// Modbus coils and holding registers that the frame codec in the parent
// modbus package reads and writes against.
package databank

import (
	"fmt"
	"sync"
	"sync/atomic"
)

const cellCount = 65536

// ErrAddress is returned whenever an addressed access falls outside
// [0, 65535] or a requested run of cells overruns the end of the space.
// It never carries a partial result — on ErrAddress the bank is left
// completely unmodified.
type ErrAddress struct {
	Addr, Count int
}

func (e ErrAddress) Error() string {
	return fmt.Sprintf("databank: address %d, count %d out of range", e.Addr, e.Count)
}

// WriteHook is called synchronously, after a write has already committed,
// with the address and number of cells touched. Hooks cannot veto or alter
// the write — they exist for logging and metrics, nothing else reads the
// values back through this path.
type WriteHook func(addr, count int)

// Bank holds 65536 single-bit coils and 65536 16-bit holding registers.
// Coils and registers are guarded by independent locks: a single operation
// only ever touches the array it addresses, and holds that lock for its
// entire read-or-modify span so a multi-cell access is atomic with respect
// to any other caller touching the same array. The zero value is an empty
// bank ready for use; New returns one.
type Bank struct {
	coilMu  sync.Mutex
	coils   [cellCount]bool
	regMu   sync.Mutex
	regs    [cellCount][2]byte
	reads   uint64
	writes  uint64
	onCoils WriteHook
	onRegs  WriteHook
}

// New returns an empty Bank: all coils false, all registers zero.
func New() *Bank {
	return &Bank{}
}

// OnCoilsWritten installs (or replaces) the write-observation hook for coil
// writes. Pass nil to disable it. Must not be called concurrently with
// SetCoils/SetCoil.
func (b *Bank) OnCoilsWritten(hook WriteHook) {
	b.onCoils = hook
}

// OnRegistersWritten installs (or replaces) the write-observation hook for
// register writes. Pass nil to disable it. Must not be called concurrently
// with SetRegister/SetRegisters.
func (b *Bank) OnRegistersWritten(hook WriteHook) {
	b.onRegs = hook
}

func checkRange(addr, count int) error {
	if addr < 0 || count < 0 || addr+count > cellCount {
		return ErrAddress{Addr: addr, Count: count}
	}
	return nil
}

// GetCoils returns a copy of the n coils starting at addr, in order.
func (b *Bank) GetCoils(addr, n int) ([]bool, error) {
	if err := checkRange(addr, n); err != nil {
		return nil, err
	}
	b.coilMu.Lock()
	defer b.coilMu.Unlock()
	out := make([]bool, n)
	copy(out, b.coils[addr:addr+n])
	atomic.AddUint64(&b.reads, 1)
	return out, nil
}

// SetCoils writes vs starting at addr, in order.
func (b *Bank) SetCoils(addr int, vs []bool) error {
	if err := checkRange(addr, len(vs)); err != nil {
		return err
	}
	b.coilMu.Lock()
	copy(b.coils[addr:addr+len(vs)], vs)
	b.coilMu.Unlock()
	atomic.AddUint64(&b.writes, 1)
	if b.onCoils != nil {
		b.onCoils(addr, len(vs))
	}
	return nil
}

// SetCoil writes a single coil. A thin convenience over SetCoils.
func (b *Bank) SetCoil(addr int, v bool) error {
	return b.SetCoils(addr, []bool{v})
}

// GetRegisters returns a copy of the n registers starting at addr, each
// cell exactly 2 bytes big-endian, in order.
func (b *Bank) GetRegisters(addr, n int) ([][2]byte, error) {
	if err := checkRange(addr, n); err != nil {
		return nil, err
	}
	b.regMu.Lock()
	defer b.regMu.Unlock()
	out := make([][2]byte, n)
	copy(out, b.regs[addr:addr+n])
	atomic.AddUint64(&b.reads, 1)
	return out, nil
}

// SetRegister writes the single 2-byte cell at addr.
func (b *Bank) SetRegister(addr int, v [2]byte) error {
	return b.SetRegisters(addr, [][2]byte{v})
}

// SetRegisters writes the cells vs starting at addr, in order. The write
// completes in full (every cell touched) before SetRegisters returns, so a
// caller building a single response for a multi-register write never
// observes a partially applied request.
func (b *Bank) SetRegisters(addr int, vs [][2]byte) error {
	if err := checkRange(addr, len(vs)); err != nil {
		return err
	}
	b.regMu.Lock()
	copy(b.regs[addr:addr+len(vs)], vs)
	b.regMu.Unlock()
	atomic.AddUint64(&b.writes, 1)
	if b.onRegs != nil {
		b.onRegs(addr, len(vs))
	}
	return nil
}

// ClearAll resets every coil to false and every register to zero.
func (b *Bank) ClearAll() {
	b.coilMu.Lock()
	b.coils = [cellCount]bool{}
	b.coilMu.Unlock()

	b.regMu.Lock()
	b.regs = [cellCount][2]byte{}
	b.regMu.Unlock()
}

// Counters returns the cumulative number of read and write operations
// served by the bank, for use by status/metrics surfaces. It is purely
// observational and never gates or alters a request's outcome.
func (b *Bank) Counters() (reads, writes uint64) {
	return atomic.LoadUint64(&b.reads), atomic.LoadUint64(&b.writes)
}
