package databank

import "encoding/binary"

// GetUint16 reads the register at addr as an unsigned 16-bit integer.
func (b *Bank) GetUint16(addr int) (uint16, error) {
	cells, err := b.GetRegisters(addr, 1)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(cells[0][:]), nil
}

// SetUint16 writes v to the register at addr.
func (b *Bank) SetUint16(addr int, v uint16) error {
	var cell [2]byte
	binary.BigEndian.PutUint16(cell[:], v)
	return b.SetRegister(addr, cell)
}

// GetUint32 reads two consecutive registers starting at addr as a single
// big-endian unsigned 32-bit integer (register addr holds the high word,
// addr+1 the low word).
func (b *Bank) GetUint32(addr int) (uint32, error) {
	cells, err := b.GetRegisters(addr, 2)
	if err != nil {
		return 0, err
	}
	var buf [4]byte
	copy(buf[0:2], cells[0][:])
	copy(buf[2:4], cells[1][:])
	return binary.BigEndian.Uint32(buf[:]), nil
}

// SetUint32 writes v across two consecutive registers starting at addr,
// high word first.
func (b *Bank) SetUint32(addr int, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	var hi, lo [2]byte
	copy(hi[:], buf[0:2])
	copy(lo[:], buf[2:4])
	return b.SetRegisters(addr, [][2]byte{hi, lo})
}

// GetFloat32 reads two consecutive registers starting at addr and
// reinterprets them, big-endian, bit for bit, as an IEEE-754 single
// precision float. This corrects the one-register slice bug in the
// original implementation (see spec.md §9): it always reads two registers.
func (b *Bank) GetFloat32(addr int) (float32, error) {
	v, err := b.GetUint32(addr)
	if err != nil {
		return 0, err
	}
	return float32FromBits(v), nil
}

// SetFloat32 writes f across two consecutive registers starting at addr.
func (b *Bank) SetFloat32(addr int, f float32) error {
	return b.SetUint32(addr, float32ToBits(f))
}

// GetFloat64 reads four consecutive registers starting at addr and
// reinterprets them, big-endian, bit for bit, as an IEEE-754 double
// precision float.
func (b *Bank) GetFloat64(addr int) (float64, error) {
	cells, err := b.GetRegisters(addr, 4)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	for i, c := range cells {
		copy(buf[i*2:i*2+2], c[:])
	}
	return float64FromBits(buf), nil
}

// SetFloat64 writes f across four consecutive registers starting at addr.
func (b *Bank) SetFloat64(addr int, f float64) error {
	buf := float64ToBits(f)
	cells := make([][2]byte, 4)
	for i := range cells {
		copy(cells[i][:], buf[i*2:i*2+2])
	}
	return b.SetRegisters(addr, cells)
}

// GetASCII reads n registers starting at addr and decodes them as n*2 ASCII
// characters, two per register, big-endian (high byte first).
func (b *Bank) GetASCII(addr, n int) (string, error) {
	cells, err := b.GetRegisters(addr, n)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, n*2)
	for _, c := range cells {
		buf = append(buf, c[0], c[1])
	}
	return string(buf), nil
}

// SetASCII writes s across ceil(len(s)/2) consecutive registers starting
// at addr, two ASCII characters per register, big-endian. An odd-length
// string zero-pads the low byte of the final register (the policy spec.md
// §9 calls for; the original implementation's handling of the trailing
// character was inconsistent).
func (b *Bank) SetASCII(addr int, s string) error {
	n := (len(s) + 1) / 2
	cells := make([][2]byte, n)
	for i := 0; i < n; i++ {
		cells[i][0] = s[2*i]
		if 2*i+1 < len(s) {
			cells[i][1] = s[2*i+1]
		}
	}
	return b.SetRegisters(addr, cells)
}
