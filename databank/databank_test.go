package databank_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modbus-tcp/server/databank"
)

func TestRegisterRoundtrip(t *testing.T) {
	b := databank.New()
	for _, addr := range []int{0, 100, 65535} {
		for _, pair := range [][2]byte{{0x00, 0x00}, {0x12, 0x34}, {0xFF, 0xFF}} {
			require.NoError(t, b.SetRegister(addr, pair))
			got, err := b.GetRegisters(addr, 1)
			require.NoError(t, err)
			assert.Equal(t, [][2]byte{pair}, got)
		}
	}
}

func TestGetRegistersLength(t *testing.T) {
	b := databank.New()
	got, err := b.GetRegisters(10, 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestAddressErrorsLeaveBankUnmodified(t *testing.T) {
	b := databank.New()
	require.NoError(t, b.SetRegister(5, [2]byte{0xAA, 0xBB}))

	_, err := b.GetRegisters(65530, 10)
	assert.Error(t, err)

	err = b.SetRegisters(65530, make([][2]byte, 10))
	assert.Error(t, err)

	// untouched cell set earlier must survive the rejected calls
	got, err := b.GetRegisters(5, 1)
	require.NoError(t, err)
	assert.Equal(t, [2]byte{0xAA, 0xBB}, got[0])
}

func TestCoilsOutOfRange(t *testing.T) {
	b := databank.New()
	_, err := b.GetCoils(-1, 1)
	assert.Error(t, err)
	_, err = b.GetCoils(65535, 2)
	assert.Error(t, err)
}

func TestClearAll(t *testing.T) {
	b := databank.New()
	require.NoError(t, b.SetCoil(10, true))
	require.NoError(t, b.SetRegister(10, [2]byte{1, 2}))

	b.ClearAll()

	coils, err := b.GetCoils(10, 1)
	require.NoError(t, err)
	assert.False(t, coils[0])

	regs, err := b.GetRegisters(10, 1)
	require.NoError(t, err)
	assert.Equal(t, [2]byte{0, 0}, regs[0])
}

func TestTypedUint32(t *testing.T) {
	b := databank.New()
	require.NoError(t, b.SetUint32(0, 0x0102_0304))
	got, err := b.GetUint32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0102_0304), got)
}

func TestTypedFloat32(t *testing.T) {
	b := databank.New()
	require.NoError(t, b.SetFloat32(0, 3.14159))
	got, err := b.GetFloat32(0)
	require.NoError(t, err)
	assert.Equal(t, float32(3.14159), got)
}

func TestTypedFloat64(t *testing.T) {
	b := databank.New()
	require.NoError(t, b.SetFloat64(0, math.Pi))
	got, err := b.GetFloat64(0)
	require.NoError(t, err)
	assert.Equal(t, math.Pi, got)
}

func TestTypedASCIIEven(t *testing.T) {
	b := databank.New()
	require.NoError(t, b.SetASCII(0, "ABCD"))
	got, err := b.GetASCII(0, 2)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", got)
}

func TestTypedASCIIOddPadsLowByte(t *testing.T) {
	b := databank.New()
	require.NoError(t, b.SetASCII(0, "ABC"))
	regs, err := b.GetRegisters(0, 2)
	require.NoError(t, err)
	assert.Equal(t, [2]byte{'A', 'B'}, regs[0])
	assert.Equal(t, [2]byte{'C', 0x00}, regs[1])
}

func TestWriteHooksObserveButDoNotGate(t *testing.T) {
	b := databank.New()
	var mu sync.Mutex
	var sawAddr, sawCount int
	b.OnRegistersWritten(func(addr, count int) {
		mu.Lock()
		defer mu.Unlock()
		sawAddr, sawCount = addr, count
	})
	require.NoError(t, b.SetRegisters(7, make([][2]byte, 3)))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 7, sawAddr)
	assert.Equal(t, 3, sawCount)
}

func TestConcurrentRegisterWritesRace(t *testing.T) {
	b := databank.New()
	const addr = 100
	const iterations = 1000
	var wg sync.WaitGroup
	wg.Add(2)
	write := func(v byte) {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			_ = b.SetRegister(addr, [2]byte{v, v})
		}
	}
	go write(0xAA)
	go write(0xBB)
	wg.Wait()

	got, err := b.GetRegisters(addr, 1)
	require.NoError(t, err)
	assert.Contains(t, [][2]byte{{0xAA, 0xAA}, {0xBB, 0xBB}}, got[0])

	// another cell (register 0) is untouched
	others, err := b.GetRegisters(0, 1)
	require.NoError(t, err)
	assert.Equal(t, [2]byte{0, 0}, others[0])
}

func TestCounters(t *testing.T) {
	b := databank.New()
	_, _ = b.GetRegisters(0, 1)
	_ = b.SetRegister(0, [2]byte{1, 1})
	reads, writes := b.Counters()
	assert.GreaterOrEqual(t, reads, uint64(1))
	assert.GreaterOrEqual(t, writes, uint64(1))
}
