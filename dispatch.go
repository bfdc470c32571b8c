package modbus

import (
	"encoding/binary"

	"github.com/modbus-tcp/server/databank"
)

// dispatch runs the per-FC validation (spec.md §4.3 steps 3-6) and, on
// success, the databank.Bank operation for request pdu (function code plus
// body, with the function code already confirmed to have its high bit
// clear by the caller). It returns either a success response body (the
// bytes following the function code) or an exception.
func dispatch(bank *databank.Bank, fc byte, body []byte) (resp []byte, ex Exception) {
	switch fc {
	case 0x01, 0x02: // Read Coils / Read Discrete Inputs
		return readBits(bank, body)
	case 0x03, 0x04: // Read Holding / Input Registers
		return readRegisters(bank, body)
	case 0x05: // Write Single Coil
		return writeSingleCoil(bank, body)
	case 0x06: // Write Single Register
		return writeSingleRegister(bank, body)
	case 0x0F: // Write Multiple Coils
		return writeMultipleCoils(bank, body)
	case 0x10: // Write Multiple Registers
		return writeMultipleRegisters(bank, body)
	default:
		return nil, ExIllegalFunction
	}
}

func readBits(bank *databank.Bank, body []byte) ([]byte, Exception) {
	if len(body) != 4 {
		return nil, ExIllegalDataValue
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	count := int(binary.BigEndian.Uint16(body[2:4]))
	if count < 1 || count > 2000 {
		return nil, ExIllegalDataValue
	}
	bits, err := bank.GetCoils(addr, count)
	if err != nil {
		return nil, ExIllegalDataAddress
	}
	return packBits(bits), 0
}

func packBits(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, 1+n)
	out[0] = byte(n)
	for i, v := range bits {
		if v {
			out[1+i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func readRegisters(bank *databank.Bank, body []byte) ([]byte, Exception) {
	if len(body) != 4 {
		return nil, ExIllegalDataValue
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	count := int(binary.BigEndian.Uint16(body[2:4]))
	if count < 1 || count > 125 {
		return nil, ExIllegalDataValue
	}
	cells, err := bank.GetRegisters(addr, count)
	if err != nil {
		return nil, ExIllegalDataAddress
	}
	out := make([]byte, 1+2*len(cells))
	out[0] = byte(2 * len(cells))
	for i, c := range cells {
		out[1+2*i] = c[0]
		out[1+2*i+1] = c[1]
	}
	return out, 0
}

func writeSingleCoil(bank *databank.Bank, body []byte) ([]byte, Exception) {
	if len(body) != 4 {
		return nil, ExIllegalDataValue
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	raw := binary.BigEndian.Uint16(body[2:4])
	var v bool
	switch raw {
	case 0xFF00:
		v = true
	case 0x0000:
		v = false
	default:
		return nil, ExIllegalDataValue
	}
	if err := bank.SetCoil(addr, v); err != nil {
		return nil, ExIllegalDataAddress
	}
	echo := make([]byte, 4)
	copy(echo, body)
	return echo, 0
}

func writeSingleRegister(bank *databank.Bank, body []byte) ([]byte, Exception) {
	if len(body) != 4 {
		return nil, ExIllegalDataValue
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	var cell [2]byte
	copy(cell[:], body[2:4])
	if err := bank.SetRegister(addr, cell); err != nil {
		return nil, ExIllegalDataAddress
	}
	echo := make([]byte, 4)
	copy(echo, body)
	return echo, 0
}

func writeMultipleCoils(bank *databank.Bank, body []byte) ([]byte, Exception) {
	if len(body) < 5 {
		return nil, ExIllegalDataValue
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	count := int(binary.BigEndian.Uint16(body[2:4]))
	byteCount := int(body[4])
	if count < 1 || count > 1968 || byteCount != (count+7)/8 || len(body[5:]) != byteCount {
		return nil, ExIllegalDataValue
	}
	bits := make([]bool, count)
	for i := range bits {
		bits[i] = body[5+i/8]&(1<<uint(i%8)) != 0
	}
	if err := bank.SetCoils(addr, bits); err != nil {
		return nil, ExIllegalDataAddress
	}
	resp := make([]byte, 4)
	copy(resp, body[0:4])
	return resp, 0
}

func writeMultipleRegisters(bank *databank.Bank, body []byte) ([]byte, Exception) {
	if len(body) < 5 {
		return nil, ExIllegalDataValue
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	count := int(binary.BigEndian.Uint16(body[2:4]))
	byteCount := int(body[4])
	if count < 1 || count > 123 || byteCount != count*2 || len(body[5:]) != byteCount {
		return nil, ExIllegalDataValue
	}
	// Build every cell before calling into the bank, so the single write
	// below either applies the whole batch or none of it (spec.md §9's
	// correction of the source's write-inside-loop response bug: all
	// cell writes must finish before the single response is built).
	cells := make([][2]byte, count)
	for i := range cells {
		cells[i][0] = body[5+2*i]
		cells[i][1] = body[5+2*i+1]
	}
	if err := bank.SetRegisters(addr, cells); err != nil {
		return nil, ExIllegalDataAddress
	}
	resp := make([]byte, 4)
	copy(resp, body[0:4])
	return resp, 0
}
